package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/clients/ragworker"
	"github.com/learnloop/learnloop-backend/internal/types"
)

func newCheckinService(env *testEnv, gen *fakeGenerator, retriever *fakeRetriever) CheckinService {
	var r ragworker.Retriever
	if retriever != nil {
		r = retriever
	}
	return NewCheckinService(
		testLogger(), nil, gen, r, 0,
		env.commitmentRepo, env.planRepo, env.taskRepo, env.checkinRepo,
		env.memory, env.decisions,
	)
}

func TestProcessCheckinWithoutCommitment(t *testing.T) {
	env := newTestEnv(t)
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("should not be called")}, nil)

	decision, err := svc.ProcessCheckin(context.Background(), uuid.New(), CheckinInput{Yesterday: "studied"})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}
	if len(decision.QualityFlags) != 1 || decision.QualityFlags[0] != "no_commitment" {
		t.Fatalf("expected no_commitment decision, got %+v", decision)
	}
}

func TestProcessCheckinPersistsSelfReportWithFallbackGuidance(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, nil)
	ctx := context.Background()

	decision, err := svc.ProcessCheckin(ctx, userID, CheckinInput{Yesterday: "read a chapter", Today: "exercises"})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}

	if decision.Reason != "Check-in received" {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
	if decision.Advice != "Keep up the momentum!" {
		t.Fatalf("expected the motivation note as advice, got %q", decision.Advice)
	}
	if len(decision.NextTasks) != 2 {
		t.Fatalf("expected next plus fallback task, got %d", len(decision.NextTasks))
	}
	if decision.NextTasks[0].Task != "Continue with your planned learning" || decision.NextTasks[0].TimeboxMin != 45 {
		t.Fatalf("unexpected next task %+v", decision.NextTasks[0])
	}
	if decision.NextTasks[1].Task != "[Fallback] Review yesterday's concepts for 15 minutes" {
		t.Fatalf("unexpected fallback task %q", decision.NextTasks[1].Task)
	}
	if decision.NextTasks[1].TimeboxMin != 20 || decision.NextTasks[1].Type != types.TaskTypeReview {
		t.Fatalf("unexpected fallback shape %+v", decision.NextTasks[1])
	}

	checkins, err := env.checkinRepo.GetRecentByUser(ctx, nil, userID, 10)
	if err != nil {
		t.Fatalf("list checkins: %v", err)
	}
	if len(checkins) != 1 {
		t.Fatalf("expected 1 check-in row, got %d", len(checkins))
	}
	row := checkins[0]
	if row.Yesterday != "read a chapter" || row.Today != "exercises" {
		t.Fatalf("self-report not persisted: %+v", row)
	}
	if row.NextTask == "" || row.FallbackTask == "" || row.Advice == "" {
		t.Fatalf("guidance not persisted: %+v", row)
	}
}

func TestProcessCheckinUsesGeneratedGuidance(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	gen := &fakeGenerator{responses: map[string]map[string]any{
		"checkin_guidance": {
			"assessment":        "Solid progress",
			"next_task":         "Finish the maps exercises",
			"next_task_timebox": 30,
			"fallback_task":     "Re-read yesterday's notes",
			"motivation_note":   "Nice streak",
		},
	}}
	svc := newCheckinService(env, gen, nil)

	decision, err := svc.ProcessCheckin(context.Background(), userID, CheckinInput{Yesterday: "slices", Today: "maps"})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}
	if decision.Reason != "Solid progress" {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
	if decision.Advice != "Nice streak" {
		t.Fatalf("unexpected advice %q", decision.Advice)
	}
	if decision.NextTasks[0].Task != "Finish the maps exercises" || decision.NextTasks[0].TimeboxMin != 30 {
		t.Fatalf("unexpected next task %+v", decision.NextTasks[0])
	}
}

func TestProcessCheckinBlockerAdviceWinsOverMotivation(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, nil)

	decision, err := svc.ProcessCheckin(context.Background(), userID, CheckinInput{
		Yesterday: "read a chapter",
		Blockers:  "stuck on pointers",
	})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}
	if decision.Advice != "Try breaking the problem into smaller steps" {
		t.Fatalf("expected blocker advice, got %q", decision.Advice)
	}
}

func TestProcessCheckinAttachesBlockerResources(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	retriever := &fakeRetriever{resources: []types.ResourceUsed{
		{Title: "Pointers explained", URL: "https://example.com/pointers", Relevance: 0.91},
	}}
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, retriever)

	decision, err := svc.ProcessCheckin(context.Background(), userID, CheckinInput{
		Yesterday: "read a chapter",
		Blockers:  "stuck on pointers",
	})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}
	if len(decision.ResourcesUsed) != 1 || decision.ResourcesUsed[0].Title != "Pointers explained" {
		t.Fatalf("expected the retrieved resource, got %+v", decision.ResourcesUsed)
	}
}

func TestProcessCheckinResourceLookupFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	retriever := &fakeRetriever{err: errors.New("sidecar down")}
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, retriever)

	decision, err := svc.ProcessCheckin(context.Background(), userID, CheckinInput{
		Yesterday: "read a chapter",
		Blockers:  "no time lately",
	})
	if err != nil {
		t.Fatalf("process checkin: %v", err)
	}
	if len(decision.ResourcesUsed) != 0 {
		t.Fatalf("expected no resources on lookup failure, got %+v", decision.ResourcesUsed)
	}
}

func TestProcessCheckinDetectsPatterns(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, nil)
	ctx := context.Background()

	if _, err := svc.ProcessCheckin(ctx, userID, CheckinInput{Yesterday: "nothing", Blockers: "no time"}); err != nil {
		t.Fatalf("process checkin: %v", err)
	}

	skip, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTaskSkip)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if skip == nil {
		t.Fatal("expected a task_skip rule")
	}
	constraint, err := env.ruleRepo.GetActiveByUserAndType(ctx, nil, userID, types.RuleTypeTimeConstraint)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if constraint == nil {
		t.Fatal("expected a time_constraint rule")
	}
}

func TestProcessCheckinRecordsRun(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newCheckinService(env, &fakeGenerator{err: errors.New("generator down")}, nil)
	ctx := context.Background()

	if _, err := svc.ProcessCheckin(ctx, userID, CheckinInput{Yesterday: "studied"}); err != nil {
		t.Fatalf("process checkin: %v", err)
	}

	runs, err := env.runRepo.ListRecentByUser(ctx, nil, userID, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Trigger != "checkin" {
		t.Fatalf("expected one checkin run, got %+v", runs)
	}
}
