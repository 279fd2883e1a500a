package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type DailyTaskRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*types.DailyTask) ([]*types.DailyTask, error)
	GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.DailyTask, error)
	GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) ([]*types.DailyTask, error)
	GetByPlanAndDateRange(ctx context.Context, tx *gorm.DB, planID uuid.UUID, from, to time.Time) ([]*types.DailyTask, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, completedAt time.Time) error
}

type dailyTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyTaskRepo(db *gorm.DB, baseLog *logger.Logger) DailyTaskRepo {
	repoLog := baseLog.With("repo", "DailyTaskRepo")
	return &dailyTaskRepo{db: db, log: repoLog}
}

func (dr *dailyTaskRepo) CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*types.DailyTask) ([]*types.DailyTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(tasks) == 0 {
		return []*types.DailyTask{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (dr *dailyTaskRepo) GetByID(ctx context.Context, tx *gorm.DB, taskID uuid.UUID) (*types.DailyTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var result types.DailyTask
	if err := transaction.WithContext(ctx).
		Where("id = ?", taskID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (dr *dailyTaskRepo) GetByUserAndDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, date time.Time) ([]*types.DailyTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.DailyTask
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *dailyTaskRepo) GetByPlanAndDateRange(ctx context.Context, tx *gorm.DB, planID uuid.UUID, from, to time.Time) ([]*types.DailyTask, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.DailyTask
	if err := transaction.WithContext(ctx).
		Where("plan_id = ? AND date >= ? AND date <= ?", planID, from, to).
		Order("date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *dailyTaskRepo) MarkCompleted(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, completedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.DailyTask{}).
		Where("id = ?", taskID).
		Updates(map[string]any{
			"status":       types.TaskStatusCompleted,
			"completed_at": completedAt,
		}).Error
}
