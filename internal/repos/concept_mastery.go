package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type MasteryTotals struct {
	TimesSeen    int64
	TimesCorrect int64
}

type ConceptMasteryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, mastery *types.ConceptMastery) (*types.ConceptMastery, error)
	GetByUserAndConcept(ctx context.Context, tx *gorm.DB, userID uuid.UUID, concept string) (*types.ConceptMastery, error)
	Update(ctx context.Context, tx *gorm.DB, mastery *types.ConceptMastery) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ConceptMastery, error)
	Totals(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (MasteryTotals, error)
}

type conceptMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptMasteryRepo(db *gorm.DB, baseLog *logger.Logger) ConceptMasteryRepo {
	repoLog := baseLog.With("repo", "ConceptMasteryRepo")
	return &conceptMasteryRepo{db: db, log: repoLog}
}

func (cm *conceptMasteryRepo) Create(ctx context.Context, tx *gorm.DB, mastery *types.ConceptMastery) (*types.ConceptMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = cm.db
	}

	if err := transaction.WithContext(ctx).Create(mastery).Error; err != nil {
		return nil, err
	}
	return mastery, nil
}

// GetByUserAndConcept returns (nil, nil) when the concept has never been seen.
func (cm *conceptMasteryRepo) GetByUserAndConcept(ctx context.Context, tx *gorm.DB, userID uuid.UUID, concept string) (*types.ConceptMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = cm.db
	}

	var result types.ConceptMastery
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND concept = ?", userID, concept).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cm *conceptMasteryRepo) Update(ctx context.Context, tx *gorm.DB, mastery *types.ConceptMastery) error {
	transaction := tx
	if transaction == nil {
		transaction = cm.db
	}

	return transaction.WithContext(ctx).Save(mastery).Error
}

func (cm *conceptMasteryRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ConceptMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = cm.db
	}

	var results []*types.ConceptMastery
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("concept ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cm *conceptMasteryRepo) Totals(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (MasteryTotals, error) {
	transaction := tx
	if transaction == nil {
		transaction = cm.db
	}

	var totals MasteryTotals
	if err := transaction.WithContext(ctx).
		Model(&types.ConceptMastery{}).
		Select("COALESCE(SUM(times_seen), 0) AS times_seen, COALESCE(SUM(times_correct), 0) AS times_correct").
		Where("user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return MasteryTotals{}, err
	}
	return totals, nil
}
