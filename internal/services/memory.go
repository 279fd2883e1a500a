package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

type MemoryService interface {
	ReinforceRule(ctx context.Context, userID uuid.UUID, ruleType types.RuleType, ruleValue string) error
	ListActiveRules(ctx context.Context, userID uuid.UUID) ([]*types.MemoryRule, error)
	DetectPatterns(ctx context.Context, userID uuid.UUID, yesterday, blockers string) error
}

type memoryService struct {
	log      *logger.Logger
	ruleRepo repos.MemoryRuleRepo
}

func NewMemoryService(baseLog *logger.Logger, ruleRepo repos.MemoryRuleRepo) MemoryService {
	return &memoryService{
		log:      baseLog.With("service", "MemoryService"),
		ruleRepo: ruleRepo,
	}
}

// ReinforceRule bumps an existing active rule's confidence by 0.1 (capped at
// 1.0) without touching its value, or inserts a fresh rule at 0.5.
func (m *memoryService) ReinforceRule(ctx context.Context, userID uuid.UUID, ruleType types.RuleType, ruleValue string) error {
	existing, err := m.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, ruleType)
	if err != nil {
		return err
	}

	if existing != nil {
		existing.Confidence = minFloat(1.0, round2(existing.Confidence+0.1))
		existing.UpdatedAt = time.Now()
		return m.ruleRepo.Update(ctx, nil, existing)
	}

	now := time.Now()
	rule := &types.MemoryRule{
		ID:         uuid.New(),
		UserID:     userID,
		RuleType:   ruleType,
		RuleValue:  ruleValue,
		Confidence: 0.5,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = m.ruleRepo.Create(ctx, nil, rule)
	return err
}

func (m *memoryService) ListActiveRules(ctx context.Context, userID uuid.UUID) ([]*types.MemoryRule, error) {
	return m.ruleRepo.ListActiveByUser(ctx, nil, userID)
}

var skipPhrases = []string{"nothing", "didn't do anything", "skipped"}

// DetectPatterns runs the check-in pattern detectors and reinforces any rule
// they trigger.
func (m *memoryService) DetectPatterns(ctx context.Context, userID uuid.UUID, yesterday, blockers string) error {
	normalized := strings.ToLower(strings.TrimSpace(yesterday))
	skipped := normalized == ""
	for _, phrase := range skipPhrases {
		if normalized == phrase {
			skipped = true
			break
		}
	}
	if skipped {
		if err := m.ReinforceRule(ctx, userID, types.RuleTypeTaskSkip, "User skipped learning session"); err != nil {
			return err
		}
	}

	if blockers != "" && strings.Contains(strings.ToLower(blockers), "time") {
		if err := m.ReinforceRule(ctx, userID, types.RuleTypeTimeConstraint, "User frequently has time constraints - prefer shorter tasks"); err != nil {
			return err
		}
	}
	return nil
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
