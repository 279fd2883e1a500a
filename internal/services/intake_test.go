package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/types"
)

func newIntakeService(env *testEnv, gen *fakeGenerator) IntakeService {
	return NewIntakeService(
		testLogger(), env.db, nil, gen, 0,
		env.commitmentRepo, env.decisions,
	)
}

func TestCreateCommitmentFallbackAnalysis(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	svc := newIntakeService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	decision, err := svc.CreateCommitment(ctx, userID, IntakeInput{
		Goal:          "Learn Go",
		TargetDate:    time.Now().AddDate(0, 0, 28),
		WeeklyHours:   10,
		LearningStyle: "coding",
	})
	if err != nil {
		t.Fatalf("create commitment: %v", err)
	}

	if decision.Reason != "Commitment created successfully. Let's start with a premortem assessment." {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
	if len(decision.NextTasks) != 1 {
		t.Fatalf("expected one fallback next task, got %d", len(decision.NextTasks))
	}
	next := decision.NextTasks[0]
	if next.Task != "Complete premortem assessment" || next.TimeboxMin != 15 || next.Type != types.TaskTypeReview || next.Priority != 1 {
		t.Fatalf("unexpected next task %+v", next)
	}
	if decision.Signals.Status != types.UserStatusActive || decision.Signals.Adherence != 1.0 {
		t.Fatalf("expected fresh-start signals, got %+v", decision.Signals)
	}

	commitment, err := svc.ActiveCommitment(ctx, userID)
	if err != nil {
		t.Fatalf("active commitment: %v", err)
	}
	if commitment == nil {
		t.Fatal("expected an active commitment")
	}
	if commitment.LearningStyle != types.LearningStyleCoding {
		t.Fatalf("expected coding style, got %q", commitment.LearningStyle)
	}
}

func TestCreateCommitmentUsesGeneratedAnalysis(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	gen := &fakeGenerator{responses: map[string]map[string]any{
		"intake_analysis": {
			"reason":              "Four weeks is tight but doable at 10h/week.",
			"timeline_assessment": "achievable",
			"initial_tasks":       []any{"Set up your Go workspace", "Skim the tour of Go"},
		},
	}}
	svc := newIntakeService(env, gen)

	decision, err := svc.CreateCommitment(context.Background(), userID, IntakeInput{
		Goal:        "Learn Go",
		TargetDate:  time.Now().AddDate(0, 0, 28),
		WeeklyHours: 10,
	})
	if err != nil {
		t.Fatalf("create commitment: %v", err)
	}

	if decision.Reason != "Four weeks is tight but doable at 10h/week." {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
	if len(decision.NextTasks) != 2 {
		t.Fatalf("expected two next tasks, got %d", len(decision.NextTasks))
	}
	if decision.NextTasks[0].Task != "Set up your Go workspace" || decision.NextTasks[0].Priority != 1 {
		t.Fatalf("unexpected first task %+v", decision.NextTasks[0])
	}
	if decision.NextTasks[1].Task != "Skim the tour of Go" || decision.NextTasks[1].TimeboxMin != 20 || decision.NextTasks[1].Priority != 2 {
		t.Fatalf("unexpected second task %+v", decision.NextTasks[1])
	}
}

func TestCreateCommitmentDeactivatesPrior(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	svc := newIntakeService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	if _, err := svc.CreateCommitment(ctx, userID, IntakeInput{Goal: "Learn Go", TargetDate: time.Now().AddDate(0, 0, 28), WeeklyHours: 10}); err != nil {
		t.Fatalf("first commitment: %v", err)
	}
	if _, err := svc.CreateCommitment(ctx, userID, IntakeInput{Goal: "Learn Rust", TargetDate: time.Now().AddDate(0, 0, 56), WeeklyHours: 5}); err != nil {
		t.Fatalf("second commitment: %v", err)
	}

	active, err := svc.ActiveCommitment(ctx, userID)
	if err != nil {
		t.Fatalf("active commitment: %v", err)
	}
	if active.Goal != "Learn Rust" {
		t.Fatalf("expected the newest commitment to be active, got %q", active.Goal)
	}

	var activeCount, totalCount int64
	if err := env.db.Model(&types.Commitment{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&activeCount).Error; err != nil {
		t.Fatalf("count active: %v", err)
	}
	if err := env.db.Model(&types.Commitment{}).Where("user_id = ?", userID).Count(&totalCount).Error; err != nil {
		t.Fatalf("count total: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active commitment, got %d", activeCount)
	}
	if totalCount != 2 {
		t.Fatalf("superseded commitments must be kept, got %d rows", totalCount)
	}
}

func TestCreateCommitmentNormalizesLearningStyle(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	svc := newIntakeService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	if _, err := svc.CreateCommitment(ctx, userID, IntakeInput{
		Goal:          "Learn Go",
		TargetDate:    time.Now().AddDate(0, 0, 28),
		WeeklyHours:   10,
		LearningStyle: "interpretive dance",
	}); err != nil {
		t.Fatalf("create commitment: %v", err)
	}

	active, err := svc.ActiveCommitment(ctx, userID)
	if err != nil {
		t.Fatalf("active commitment: %v", err)
	}
	if active.LearningStyle != types.LearningStyleMixed {
		t.Fatalf("expected unknown styles to normalize to mixed, got %q", active.LearningStyle)
	}
}

func TestCreateCommitmentRecordsRun(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	svc := newIntakeService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	if _, err := svc.CreateCommitment(ctx, userID, IntakeInput{Goal: "Learn Go", TargetDate: time.Now().AddDate(0, 0, 28), WeeklyHours: 10}); err != nil {
		t.Fatalf("create commitment: %v", err)
	}

	runs, err := env.runRepo.ListRecentByUser(ctx, nil, userID, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Trigger != "intake" {
		t.Fatalf("expected one intake run, got %+v", runs)
	}
}
