package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/types"
)

func newPlanService(env *testEnv, gen *fakeGenerator) PlanService {
	return NewPlanService(
		testLogger(), env.db, nil, gen, nil, time.Second,
		env.planRepo, env.taskRepo, env.commitmentRepo, env.riskRepo,
		env.memory, env.decisions,
	)
}

func TestWeekStartIsMonday(t *testing.T) {
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
	}{
		{"monday", monday},
		{"wednesday", time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)},
		{"sunday", time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(tc.in)
			if !got.Equal(monday) {
				t.Fatalf("expected %v, got %v", monday, got)
			}
		})
	}
}

func TestFallbackPlanShape(t *testing.T) {
	payload := FallbackPlan("Learn Go")

	if payload.WeekFocus != "Getting started with Learn Go" {
		t.Fatalf("unexpected focus %q", payload.WeekFocus)
	}
	if len(payload.Tasks) != 5 {
		t.Fatalf("expected 5 weekday tasks, got %d", len(payload.Tasks))
	}
	for i, task := range payload.Tasks {
		if task.Day != i+1 {
			t.Fatalf("task %d: expected day %d, got %d", i, i+1, task.Day)
		}
	}
	if payload.Tasks[4].Type != "review" {
		t.Fatalf("expected the week to end with a review, got %q", payload.Tasks[4].Type)
	}
}

func TestGetOrCreateWeeklyPlanWithoutCommitment(t *testing.T) {
	env := newTestEnv(t)
	svc := newPlanService(env, &fakeGenerator{err: errors.New("should not be called")})

	decision, err := svc.GetOrCreateWeeklyPlan(context.Background(), uuid.New(), false)
	if err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	if len(decision.QualityFlags) != 1 || decision.QualityFlags[0] != "no_commitment" {
		t.Fatalf("expected no_commitment decision, got %+v", decision)
	}
}

func TestGetOrCreateWeeklyPlanFallsBackOnGeneratorError(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newPlanService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	decision, err := svc.GetOrCreateWeeklyPlan(ctx, userID, false)
	if err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	if decision.Reason != "Week 1: Getting started with Learn Go" {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}
	if len(decision.NextTasks) != 3 {
		t.Fatalf("expected 3 preview tasks, got %d", len(decision.NextTasks))
	}

	plan, err := svc.CurrentPlan(ctx, userID)
	if err != nil {
		t.Fatalf("current plan: %v", err)
	}
	if plan == nil {
		t.Fatal("expected an active plan")
	}
	if plan.Version != 1 {
		t.Fatalf("expected version 1, got %d", plan.Version)
	}
	if len(plan.Tasks) != 5 {
		t.Fatalf("expected 5 materialized tasks, got %d", len(plan.Tasks))
	}
	if !plan.Tasks[0].Date.Equal(plan.WeekStart) {
		t.Fatalf("expected the first task on the week start, got %v", plan.Tasks[0].Date)
	}
	if !plan.Tasks[4].Date.Equal(plan.WeekStart.AddDate(0, 0, 4)) {
		t.Fatalf("expected the last task on friday, got %v", plan.Tasks[4].Date)
	}
}

func TestGetOrCreateWeeklyPlanIsIdempotentWithinWeek(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	gen := &fakeGenerator{err: errors.New("generator down")}
	svc := newPlanService(env, gen)
	ctx := context.Background()

	if _, err := svc.GetOrCreateWeeklyPlan(ctx, userID, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	callsAfterFirst := gen.calls

	if _, err := svc.GetOrCreateWeeklyPlan(ctx, userID, false); err != nil {
		t.Fatalf("second generation: %v", err)
	}
	if gen.calls != callsAfterFirst {
		t.Fatal("a same-week request must not re-invoke the generator")
	}

	var count int64
	if err := env.db.Model(&types.Plan{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single plan row, got %d", count)
	}
}

func TestGetOrCreateWeeklyPlanForceBumpsVersion(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	svc := newPlanService(env, &fakeGenerator{err: errors.New("generator down")})
	ctx := context.Background()

	if _, err := svc.GetOrCreateWeeklyPlan(ctx, userID, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	decision, err := svc.GetOrCreateWeeklyPlan(ctx, userID, true)
	if err != nil {
		t.Fatalf("forced regeneration: %v", err)
	}
	if !strings.HasPrefix(decision.Reason, "Week 2:") {
		t.Fatalf("expected a version 2 plan, got reason %q", decision.Reason)
	}

	plan, err := svc.CurrentPlan(ctx, userID)
	if err != nil {
		t.Fatalf("current plan: %v", err)
	}
	if plan.Version != 2 {
		t.Fatalf("expected version 2, got %d", plan.Version)
	}

	var activeCount int64
	if err := env.db.Model(&types.Plan{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&activeCount).Error; err != nil {
		t.Fatalf("count active plans: %v", err)
	}
	if activeCount != 1 {
		t.Fatalf("expected exactly one active plan, got %d", activeCount)
	}
}

func TestGetOrCreateWeeklyPlanNormalizesGeneratedTasks(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedCommitment(t, userID, "Learn Go", 4)
	gen := &fakeGenerator{responses: map[string]map[string]any{
		"weekly_plan": {
			"week_focus": "Slices and maps",
			"tasks": []any{
				map[string]any{"task": "Read the slices chapter", "timebox_min": 0, "type": "video", "day": 0},
				map[string]any{"task": "Build a word counter", "timebox_min": 90, "type": "coding", "day": 3},
			},
		},
	}}
	svc := newPlanService(env, gen)
	ctx := context.Background()

	decision, err := svc.GetOrCreateWeeklyPlan(ctx, userID, false)
	if err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	if decision.Reason != "Week 1: Slices and maps" {
		t.Fatalf("unexpected reason %q", decision.Reason)
	}

	plan, err := svc.CurrentPlan(ctx, userID)
	if err != nil {
		t.Fatalf("current plan: %v", err)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(plan.Tasks))
	}

	first := plan.Tasks[0]
	if first.TimeboxMin != 45 {
		t.Fatalf("expected zero timebox to default to 45, got %d", first.TimeboxMin)
	}
	if first.TaskType != types.TaskTypeReading {
		t.Fatalf("expected an unknown type to normalize to reading, got %q", first.TaskType)
	}
	if !first.Date.Equal(plan.WeekStart) {
		t.Fatalf("expected day 0 to clamp to the week start, got %v", first.Date)
	}

	second := plan.Tasks[1]
	if !second.Date.Equal(plan.WeekStart.AddDate(0, 0, 2)) {
		t.Fatalf("expected day 3 on wednesday, got %v", second.Date)
	}
}

func TestGetTodayTasks(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	svc := newPlanService(env, &fakeGenerator{})
	ctx := context.Background()

	tasks, err := svc.GetTodayTasks(ctx, userID)
	if err != nil {
		t.Fatalf("today tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks without a plan, got %d", len(tasks))
	}

	env.seedPlanWithTasks(t, userID, 1, 2)
	tasks, err = svc.GetTodayTasks(ctx, userID)
	if err != nil {
		t.Fatalf("today tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks for today, got %d", len(tasks))
	}
}

func TestCompleteTask(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	env.seedPlanWithTasks(t, userID, 0, 1)
	svc := newPlanService(env, &fakeGenerator{})
	ctx := context.Background()

	tasks, err := svc.GetTodayTasks(ctx, userID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("today tasks: %v (%d tasks)", err, len(tasks))
	}
	taskID := tasks[0].ID

	done, err := svc.CompleteTask(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if done.Status != types.TaskStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("expected a completed task, got %+v", done)
	}

	// Completing again is a no-op.
	again, err := svc.CompleteTask(ctx, userID, taskID)
	if err != nil {
		t.Fatalf("complete task twice: %v", err)
	}
	if again.Status != types.TaskStatusCompleted {
		t.Fatalf("expected completed, got %q", again.Status)
	}
}

func TestCompleteTaskRejectsOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	env.seedPlanWithTasks(t, owner, 0, 1)
	svc := newPlanService(env, &fakeGenerator{})
	ctx := context.Background()

	tasks, err := svc.GetTodayTasks(ctx, owner)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("today tasks: %v (%d tasks)", err, len(tasks))
	}

	if _, err := svc.CompleteTask(ctx, uuid.New(), tasks[0].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found for a foreign task, got %v", err)
	}
}
