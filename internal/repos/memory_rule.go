package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type MemoryRuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rule *types.MemoryRule) (*types.MemoryRule, error)
	GetActiveByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ruleType types.RuleType) (*types.MemoryRule, error)
	Update(ctx context.Context, tx *gorm.DB, rule *types.MemoryRule) error
	ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MemoryRule, error)
}

type memoryRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRuleRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRuleRepo {
	repoLog := baseLog.With("repo", "MemoryRuleRepo")
	return &memoryRuleRepo{db: db, log: repoLog}
}

func (mr *memoryRuleRepo) Create(ctx context.Context, tx *gorm.DB, rule *types.MemoryRule) (*types.MemoryRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if err := transaction.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// GetActiveByUserAndType returns (nil, nil) when no matching active rule exists.
func (mr *memoryRuleRepo) GetActiveByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, ruleType types.RuleType) (*types.MemoryRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var result types.MemoryRule
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND rule_type = ? AND is_active = ?", userID, ruleType, true).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (mr *memoryRuleRepo) Update(ctx context.Context, tx *gorm.DB, rule *types.MemoryRule) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	return transaction.WithContext(ctx).Save(rule).Error
}

func (mr *memoryRuleRepo) ListActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.MemoryRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.MemoryRule
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("confidence DESC, created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
