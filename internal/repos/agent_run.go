package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type AgentRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.AgentRun) (*types.AgentRun, error)
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.AgentRun, error)
}

type agentRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAgentRunRepo(db *gorm.DB, baseLog *logger.Logger) AgentRunRepo {
	repoLog := baseLog.With("repo", "AgentRunRepo")
	return &agentRunRepo{db: db, log: repoLog}
}

func (ar *agentRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.AgentRun) (*types.AgentRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (ar *agentRunRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.AgentRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if limit <= 0 {
		limit = 10
	}

	var results []*types.AgentRun
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
