package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

// Adaptation policy thresholds.
const (
	lowAdherenceThreshold    = 0.3
	mediumAdherenceThreshold = 0.6
	lowRetentionThreshold    = 0.5
	highScoreThreshold       = 0.8
)

// DetermineAdjustment applies the adaptation policy. Rules are evaluated in
// priority order; the first match wins.
func DetermineAdjustment(adherence, knowledge, retention float64) types.PlanAdjustment {
	if adherence < lowAdherenceThreshold {
		return types.AdjustmentReduceScope
	}
	if retention < lowRetentionThreshold {
		return types.AdjustmentRepeatConcepts
	}
	if knowledge > highScoreThreshold && adherence > highScoreThreshold {
		return types.AdjustmentIncreaseChallenge
	}
	return types.AdjustmentKeep
}

const maxRiskMitigations = 3

type DecisionService interface {
	BuildDecision(ctx context.Context, userID uuid.UUID, reason string, advice string, nextTasks []types.NextTask, resourcesUsed []types.ResourceUsed, qualityScore float64, qualityFlags []string) (types.AgentDecision, error)
	NoCommitmentDecision() types.AgentDecision
	RecordRun(ctx context.Context, userID uuid.UUID, trigger string, decision types.AgentDecision) error
}

type decisionService struct {
	log            *logger.Logger
	scoring        ScoringService
	commitmentRepo repos.CommitmentRepo
	riskRepo       repos.PremortemRiskRepo
	runRepo        repos.AgentRunRepo
}

func NewDecisionService(
	baseLog *logger.Logger,
	scoring ScoringService,
	commitmentRepo repos.CommitmentRepo,
	riskRepo repos.PremortemRiskRepo,
	runRepo repos.AgentRunRepo,
) DecisionService {
	return &decisionService{
		log:            baseLog.With("service", "DecisionService"),
		scoring:        scoring,
		commitmentRepo: commitmentRepo,
		riskRepo:       riskRepo,
		runRepo:        runRepo,
	}
}

// BuildDecision assembles the full decision contract from live signals, the
// adaptation policy, and the active commitment's top risk mitigations.
func (d *decisionService) BuildDecision(
	ctx context.Context,
	userID uuid.UUID,
	reason string,
	advice string,
	nextTasks []types.NextTask,
	resourcesUsed []types.ResourceUsed,
	qualityScore float64,
	qualityFlags []string,
) (types.AgentDecision, error) {
	signals, err := d.scoring.Signals(ctx, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}

	mitigations, err := d.activeMitigations(ctx, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if signals.Status == types.UserStatusAtRisk && !contains(mitigations, "check_in_reminder") {
		mitigations = append(mitigations, "check_in_reminder")
	}
	if len(mitigations) > maxRiskMitigations {
		mitigations = mitigations[:maxRiskMitigations]
	}

	if nextTasks == nil {
		nextTasks = []types.NextTask{}
	}
	if resourcesUsed == nil {
		resourcesUsed = []types.ResourceUsed{}
	}
	if qualityFlags == nil {
		qualityFlags = []string{}
	}

	return types.AgentDecision{
		Reason:  reason,
		Advice:  advice,
		Signals: signals,
		Action: types.Action{
			PlanAdjustment: DetermineAdjustment(signals.Adherence, signals.Knowledge, signals.Retention),
			RiskMitigation: mitigations,
		},
		NextTasks:     nextTasks,
		ResourcesUsed: resourcesUsed,
		QualityScore:  qualityScore,
		QualityFlags:  qualityFlags,
	}, nil
}

// activeMitigations returns the top-priority risk mitigations for the user's
// active commitment, capped at three.
func (d *decisionService) activeMitigations(ctx context.Context, userID uuid.UUID) ([]string, error) {
	commitment, err := d.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return []string{}, nil
	}

	risks, err := d.riskRepo.GetByCommitment(ctx, nil, commitment.ID)
	if err != nil {
		return nil, err
	}

	mitigations := []string{}
	for _, r := range risks {
		if r.Mitigation == "" {
			continue
		}
		mitigations = append(mitigations, r.Mitigation)
		if len(mitigations) == maxRiskMitigations {
			break
		}
	}
	return mitigations, nil
}

// NoCommitmentDecision is the fixed response every command returns when the
// user has not completed intake yet.
func (d *decisionService) NoCommitmentDecision() types.AgentDecision {
	return types.AgentDecision{
		Reason: "No active commitment found. Please complete intake first.",
		Signals: types.Signals{
			Adherence: 0.0,
			Knowledge: 0.0,
			Retention: 0.0,
			Status:    types.UserStatusAtRisk,
		},
		Action: types.Action{
			PlanAdjustment: types.AdjustmentKeep,
			RiskMitigation: []string{},
		},
		NextTasks: []types.NextTask{
			{Task: "Complete intake assessment", TimeboxMin: 10, Type: types.TaskTypeReview},
		},
		ResourcesUsed: []types.ResourceUsed{},
		QualityScore:  1.0,
		QualityFlags:  []string{"no_commitment"},
	}
}

// RecordRun persists an audit row for a composed decision. Failures are
// logged, not propagated; auditing never blocks a response.
func (d *decisionService) RecordRun(ctx context.Context, userID uuid.UUID, trigger string, decision types.AgentDecision) error {
	raw, err := json.Marshal(decision)
	if err != nil {
		d.log.Error("Failed to marshal decision for audit", "error", err)
		return err
	}
	flags, err := json.Marshal(decision.QualityFlags)
	if err != nil {
		flags = []byte("[]")
	}

	run := &types.AgentRun{
		ID:           uuid.New(),
		UserID:       userID,
		Trigger:      trigger,
		Decision:     raw,
		QualityScore: decision.QualityScore,
		QualityFlags: flags,
		CreatedAt:    time.Now(),
	}
	if _, err := d.runRepo.Create(ctx, nil, run); err != nil {
		d.log.Error("Failed to record agent run", "trigger", trigger, "error", err)
		return err
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
