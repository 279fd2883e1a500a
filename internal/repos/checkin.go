package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type CheckinRepo interface {
	Create(ctx context.Context, tx *gorm.DB, checkin *types.Checkin) (*types.Checkin, error)
	CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error)
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Checkin, error)
}

type checkinRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckinRepo(db *gorm.DB, baseLog *logger.Logger) CheckinRepo {
	repoLog := baseLog.With("repo", "CheckinRepo")
	return &checkinRepo{db: db, log: repoLog}
}

func (cr *checkinRepo) Create(ctx context.Context, tx *gorm.DB, checkin *types.Checkin) (*types.Checkin, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(checkin).Error; err != nil {
		return nil, err
	}
	return checkin, nil
}

func (cr *checkinRepo) CountSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Checkin{}).
		Where("user_id = ? AND date >= ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *checkinRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Checkin, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if limit <= 0 {
		limit = 7
	}

	var results []*types.Checkin
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
