package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type CommitmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, commitment *types.Commitment) (*types.Commitment, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Commitment, error)
	DeactivateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type commitmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitmentRepo(db *gorm.DB, baseLog *logger.Logger) CommitmentRepo {
	repoLog := baseLog.With("repo", "CommitmentRepo")
	return &commitmentRepo{db: db, log: repoLog}
}

func (cr *commitmentRepo) Create(ctx context.Context, tx *gorm.DB, commitment *types.Commitment) (*types.Commitment, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(ctx).Create(commitment).Error; err != nil {
		return nil, err
	}
	return commitment, nil
}

// GetActiveByUser returns (nil, nil) when the user has no active commitment.
func (cr *commitmentRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Commitment, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Commitment
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (cr *commitmentRepo) DeactivateActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Commitment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false).Error
}
