package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type PlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *types.Plan) (*types.Plan, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Plan, error)
	GetActiveByUserForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Plan, error)
	GetWithTasks(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.Plan, error)
	MaxVersionForWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (int, error)
	DeactivateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	repoLog := baseLog.With("repo", "PlanRepo")
	return &planRepo{db: db, log: repoLog}
}

func (pr *planRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.Plan) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

// GetActiveByUser returns (nil, nil) when the user has no active plan.
func (pr *planRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Plan
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("version DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetActiveByUserForUpdate takes a row lock so concurrent generation attempts
// serialize inside the transaction. Must be called with a non-nil tx.
func (pr *planRepo) GetActiveByUserForUpdate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	q := transaction.WithContext(ctx)
	// sqlite has no row locks; serialization there comes from its single writer.
	if transaction.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var result types.Plan
	err := q.
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("version DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *planRepo) GetWithTasks(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (*types.Plan, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Plan
	if err := transaction.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, created_at ASC")
		}).
		Where("id = ?", planID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *planRepo) MaxVersionForWeek(ctx context.Context, tx *gorm.DB, userID uuid.UUID, weekStart time.Time) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var max *int
	if err := transaction.WithContext(ctx).
		Model(&types.Plan{}).
		Select("MAX(version)").
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (pr *planRepo) DeactivateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Plan{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}
