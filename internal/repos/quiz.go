package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type QuizRepo interface {
	CreateQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error)
	CreateQuestions(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error)
	GetQuizWithQuestions(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) (*types.Quiz, error)
	CreateAttempt(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) (*types.QuizAttempt, error)
	SetResult(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, score float64) error
	GetRecentCompletedQuizzes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (qr *quizRepo) CreateQuiz(ctx context.Context, tx *gorm.DB, quiz *types.Quiz) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	if err := transaction.WithContext(ctx).Omit("Questions").Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

func (qr *quizRepo) CreateQuestions(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	if len(questions) == 0 {
		return []*types.QuizQuestion{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (qr *quizRepo) GetQuizWithQuestions(ctx context.Context, tx *gorm.DB, quizID uuid.UUID) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	var result types.Quiz
	if err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", quizID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (qr *quizRepo) CreateAttempt(ctx context.Context, tx *gorm.DB, attempt *types.QuizAttempt) (*types.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	if err := transaction.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (qr *quizRepo) SetResult(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, score float64) error {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Quiz{}).
		Where("id = ?", quizID).
		Updates(map[string]any{
			"score":     score,
			"completed": true,
		}).Error
}

// GetRecentCompletedQuizzes returns the most recently created completed,
// scored quizzes in descending creation order.
func (qr *quizRepo) GetRecentCompletedQuizzes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	if limit <= 0 {
		limit = 5
	}

	var results []*types.Quiz
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND completed = ? AND score IS NOT NULL", userID, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
