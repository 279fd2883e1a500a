package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type PremortemRiskRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, risks []*types.PremortemRisk) ([]*types.PremortemRisk, error)
	GetByCommitment(ctx context.Context, tx *gorm.DB, commitmentID uuid.UUID) ([]*types.PremortemRisk, error)
	DeleteByCommitment(ctx context.Context, tx *gorm.DB, commitmentID uuid.UUID) error
}

type premortemRiskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPremortemRiskRepo(db *gorm.DB, baseLog *logger.Logger) PremortemRiskRepo {
	repoLog := baseLog.With("repo", "PremortemRiskRepo")
	return &premortemRiskRepo{db: db, log: repoLog}
}

func (pr *premortemRiskRepo) CreateBatch(ctx context.Context, tx *gorm.DB, risks []*types.PremortemRisk) ([]*types.PremortemRisk, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if len(risks) == 0 {
		return []*types.PremortemRisk{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&risks).Error; err != nil {
		return nil, err
	}
	return risks, nil
}

func (pr *premortemRiskRepo) GetByCommitment(ctx context.Context, tx *gorm.DB, commitmentID uuid.UUID) ([]*types.PremortemRisk, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.PremortemRisk
	if err := transaction.WithContext(ctx).
		Where("commitment_id = ?", commitmentID).
		Order("priority ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *premortemRiskRepo) DeleteByCommitment(ctx context.Context, tx *gorm.DB, commitmentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	return transaction.WithContext(ctx).
		Where("commitment_id = ?", commitmentID).
		Delete(&types.PremortemRisk{}).Error
}
