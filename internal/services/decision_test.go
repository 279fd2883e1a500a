package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/types"
)

func TestDetermineAdjustment(t *testing.T) {
	cases := []struct {
		name      string
		adherence float64
		knowledge float64
		retention float64
		want      types.PlanAdjustment
	}{
		{"low adherence wins", 0.1, 0.9, 0.9, types.AdjustmentReduceScope},
		{"low adherence beats low retention", 0.2, 0.2, 0.2, types.AdjustmentReduceScope},
		{"low retention", 0.9, 0.9, 0.4, types.AdjustmentRepeatConcepts},
		{"high scores", 0.9, 0.9, 0.9, types.AdjustmentIncreaseChallenge},
		{"middling", 0.5, 0.5, 0.6, types.AdjustmentKeep},
		{"adherence boundary is not low", 0.3, 0.5, 0.6, types.AdjustmentKeep},
		{"retention boundary is not low", 0.7, 0.5, 0.5, types.AdjustmentKeep},
		{"high boundary is not high", 0.8, 0.8, 0.9, types.AdjustmentKeep},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetermineAdjustment(tc.adherence, tc.knowledge, tc.retention)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNoCommitmentDecision(t *testing.T) {
	env := newTestEnv(t)

	decision := env.decisions.NoCommitmentDecision()
	if decision.Signals.Status != types.UserStatusAtRisk {
		t.Fatalf("expected at_risk status, got %q", decision.Signals.Status)
	}
	if len(decision.NextTasks) != 1 || decision.NextTasks[0].Task != "Complete intake assessment" {
		t.Fatalf("unexpected next tasks: %+v", decision.NextTasks)
	}
	if len(decision.QualityFlags) != 1 || decision.QualityFlags[0] != "no_commitment" {
		t.Fatalf("expected no_commitment flag, got %v", decision.QualityFlags)
	}
}

func seedRisks(t *testing.T, env *testEnv, commitmentID uuid.UUID, mitigations []string) {
	t.Helper()

	risks := make([]*types.PremortemRisk, 0, len(mitigations))
	for i, m := range mitigations {
		risks = append(risks, &types.PremortemRisk{
			ID:           uuid.New(),
			CommitmentID: commitmentID,
			Risk:         "risk",
			Mitigation:   m,
			Priority:     i + 1,
			CreatedAt:    time.Now(),
		})
	}
	if _, err := env.riskRepo.CreateBatch(context.Background(), nil, risks); err != nil {
		t.Fatalf("seed risks: %v", err)
	}
}

func TestBuildDecisionAppendsCheckInReminderWhenAtRisk(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	commitment := env.seedCommitment(t, userID, "Learn Go", 4)
	seedRisks(t, env, commitment.ID, []string{"block calendar time", "find study buddy"})

	// No plan and no check-ins: adherence 0.0, status at_risk.
	decision, err := env.decisions.BuildDecision(context.Background(), userID, "reason", "", nil, nil, 1.0, nil)
	if err != nil {
		t.Fatalf("build decision: %v", err)
	}

	if decision.Signals.Status != types.UserStatusAtRisk {
		t.Fatalf("expected at_risk, got %q", decision.Signals.Status)
	}
	if decision.Action.PlanAdjustment != types.AdjustmentReduceScope {
		t.Fatalf("expected reduce_scope, got %q", decision.Action.PlanAdjustment)
	}

	want := []string{"block calendar time", "find study buddy", "check_in_reminder"}
	if len(decision.Action.RiskMitigation) != len(want) {
		t.Fatalf("expected %d mitigations, got %v", len(want), decision.Action.RiskMitigation)
	}
	for i, m := range want {
		if decision.Action.RiskMitigation[i] != m {
			t.Fatalf("mitigation %d: expected %q, got %q", i, m, decision.Action.RiskMitigation[i])
		}
	}
}

func TestBuildDecisionCapsMitigationsAtThree(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	commitment := env.seedCommitment(t, userID, "Learn Go", 4)
	seedRisks(t, env, commitment.ID, []string{"one", "two", "three", "four"})

	decision, err := env.decisions.BuildDecision(context.Background(), userID, "reason", "", nil, nil, 1.0, nil)
	if err != nil {
		t.Fatalf("build decision: %v", err)
	}

	if len(decision.Action.RiskMitigation) != 3 {
		t.Fatalf("expected 3 mitigations, got %v", decision.Action.RiskMitigation)
	}
	for _, m := range decision.Action.RiskMitigation {
		if m == "check_in_reminder" {
			t.Fatalf("reminder must not displace commitment mitigations: %v", decision.Action.RiskMitigation)
		}
	}
}

func TestBuildDecisionNormalizesNilSlices(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	decision, err := env.decisions.BuildDecision(context.Background(), userID, "reason", "", nil, nil, 0.9, nil)
	if err != nil {
		t.Fatalf("build decision: %v", err)
	}
	if decision.NextTasks == nil || decision.ResourcesUsed == nil || decision.QualityFlags == nil {
		t.Fatalf("expected empty slices, got %+v", decision)
	}
	if decision.QualityScore != 0.9 {
		t.Fatalf("expected quality score 0.9, got %v", decision.QualityScore)
	}
}

func TestRecordRunPersistsAudit(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()

	decision := env.decisions.NoCommitmentDecision()
	if err := env.decisions.RecordRun(context.Background(), userID, "checkin", decision); err != nil {
		t.Fatalf("record run: %v", err)
	}

	runs, err := env.runRepo.ListRecentByUser(context.Background(), nil, userID, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Trigger != "checkin" {
		t.Fatalf("expected trigger checkin, got %q", runs[0].Trigger)
	}
	if runs[0].QualityScore != 1.0 {
		t.Fatalf("expected quality score 1.0, got %v", runs[0].QualityScore)
	}
}
