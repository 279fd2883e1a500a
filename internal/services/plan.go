package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/clients/redis"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

const planSystemPrompt = `You are an AI learning coach creating personalized weekly learning plans.
Your job is to:
1. Break down the learning goal into achievable weekly tasks
2. Consider the user's available time and learning style
3. Include a mix of theory, practice, and review
4. Account for identified risks in your planning

Create realistic, actionable plans with clear timeboxes.`

const planPromptTemplate = `User's learning goal: %s
Target date: %s (%d weeks remaining)
Weekly hours available: %d
Learning style: %s
Current level: %s
Current week: %d

Previous risks identified:
%s

Memory rules (patterns to consider):
%s

Create a weekly learning plan.
- Distribute tasks across all 7 days (Monday-Sunday) to build a consistent habit.
- Do NOT skip weekends unless weekly hours are very low (<5h).
- Each task should be:
- Specific and actionable
- Timeboxed (20, 45, or 90 minutes)
- Tagged as reading, coding, or review`

// PlanPayload is the generator's plan document, stored verbatim on the plan
// row and re-read when serving cached weeks.
type PlanPayload struct {
	WeekFocus    string     `json:"week_focus"`
	Tasks        []PlanTask `json:"tasks"`
	MicroProject string     `json:"micro_project,omitempty"`
	ReviewTopics []string   `json:"review_topics,omitempty"`
}

type PlanTask struct {
	Task       string `json:"task"`
	TimeboxMin int    `json:"timebox_min"`
	Type       string `json:"type"`
	Day        int    `json:"day"`
}

var planSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"week_focus": map[string]any{"type": "string"},
		"tasks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task":        map[string]any{"type": "string"},
					"timebox_min": map[string]any{"type": "integer"},
					"type":        map[string]any{"type": "string"},
					"day":         map[string]any{"type": "integer"},
				},
				"required": []string{"task", "timebox_min", "type", "day"},
			},
		},
		"micro_project": map[string]any{"type": "string"},
		"review_topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"week_focus", "tasks"},
}

type PlanService interface {
	GetOrCreateWeeklyPlan(ctx context.Context, userID uuid.UUID, forceRegenerate bool) (types.AgentDecision, error)
	CurrentPlan(ctx context.Context, userID uuid.UUID) (*types.Plan, error)
	GetTodayTasks(ctx context.Context, userID uuid.UUID) ([]*types.DailyTask, error)
	CompleteTask(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (*types.DailyTask, error)
}

type planService struct {
	log            *logger.Logger
	db             *gorm.DB
	tracing        *observability.Tracing
	generator      openai.Generator
	lock           redis.PlanLock
	genTimeout     time.Duration
	planRepo       repos.PlanRepo
	taskRepo       repos.DailyTaskRepo
	commitmentRepo repos.CommitmentRepo
	riskRepo       repos.PremortemRiskRepo
	memory         MemoryService
	decisions      DecisionService
}

func NewPlanService(
	baseLog *logger.Logger,
	db *gorm.DB,
	tracing *observability.Tracing,
	generator openai.Generator,
	lock redis.PlanLock,
	genTimeout time.Duration,
	planRepo repos.PlanRepo,
	taskRepo repos.DailyTaskRepo,
	commitmentRepo repos.CommitmentRepo,
	riskRepo repos.PremortemRiskRepo,
	memory MemoryService,
	decisions DecisionService,
) PlanService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &planService{
		log:            baseLog.With("service", "PlanService"),
		db:             db,
		tracing:        tracing,
		generator:      generator,
		lock:           lock,
		genTimeout:     genTimeout,
		planRepo:       planRepo,
		taskRepo:       taskRepo,
		commitmentRepo: commitmentRepo,
		riskRepo:       riskRepo,
		memory:         memory,
		decisions:      decisions,
	}
}

const (
	planLockTTL      = 60 * time.Second
	planLockAttempts = 20
	planLockBackoff  = 250 * time.Millisecond
)

// GetOrCreateWeeklyPlan returns the active plan for the current week,
// generating one when missing or when forceRegenerate is set. Generation is
// serialized per user: a redis lock keeps concurrent requests from each
// invoking the generator, and a row-locked re-check inside the write
// transaction makes the losing writer adopt the winner's plan.
func (p *planService) GetOrCreateWeeklyPlan(ctx context.Context, userID uuid.UUID, forceRegenerate bool) (types.AgentDecision, error) {
	ctx, span := p.tracing.Start(ctx, "plan.generate_weekly")
	defer span.End()

	commitment, err := p.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if commitment == nil {
		return p.decisions.NoCommitmentDecision(), nil
	}

	weekStart := WeekStart(time.Now())

	existing, err := p.planRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if existing != nil && existing.WeekStart.Equal(weekStart) && !forceRegenerate {
		return p.planToDecision(existing), nil
	}

	release, err := p.acquireLock(ctx, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if release != nil {
		defer release()
	}

	// Re-check after winning the lock: the previous holder may have just
	// written this week's plan.
	existing, err = p.planRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if existing != nil && existing.WeekStart.Equal(weekStart) && !forceRegenerate {
		return p.planToDecision(existing), nil
	}

	payload := p.generatePayload(ctx, userID, commitment, weekStart)

	plan, err := p.persistPlan(ctx, userID, weekStart, forceRegenerate, payload)
	if err != nil {
		return types.AgentDecision{}, err
	}
	return p.planToDecision(plan), nil
}

// acquireLock takes the per-user generation lock, polling while another
// request holds it. Returns a release func, or nil when no lock client is
// configured.
func (p *planService) acquireLock(ctx context.Context, userID uuid.UUID) (func(), error) {
	if p.lock == nil {
		return nil, nil
	}

	key := "plan:generate:" + userID.String()
	for attempt := 0; attempt < planLockAttempts; attempt++ {
		ok, err := p.lock.Acquire(ctx, key, planLockTTL)
		if err != nil {
			p.log.Warn("Plan lock unavailable, proceeding without it", "error", err)
			return nil, nil
		}
		if ok {
			return func() {
				if err := p.lock.Release(context.Background(), key); err != nil {
					p.log.Warn("Plan lock release failed", "error", err)
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(planLockBackoff):
		}
	}
	// Lock holder overran its TTL window. The transactional re-check still
	// guards against a duplicate write.
	p.log.Warn("Plan lock wait exhausted, proceeding", "user_id", userID)
	return nil, nil
}

// generatePayload calls the content generator under a timeout and falls back
// to the deterministic five-weekday plan on any failure. Never runs inside a
// DB transaction.
func (p *planService) generatePayload(ctx context.Context, userID uuid.UUID, commitment *types.Commitment, weekStart time.Time) PlanPayload {
	risksText := "None identified"
	if risks, err := p.riskRepo.GetByCommitment(ctx, nil, commitment.ID); err == nil && len(risks) > 0 {
		lines := make([]string, 0, maxRiskMitigations)
		for i, r := range risks {
			if i == maxRiskMitigations {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s: %s", r.Risk, r.Mitigation))
		}
		risksText = strings.Join(lines, "\n")
	}

	rulesText := "None yet"
	if rules, err := p.memory.ListActiveRules(ctx, userID); err == nil && len(rules) > 0 {
		lines := make([]string, 0, len(rules))
		for _, r := range rules {
			lines = append(lines, "- "+r.RuleValue)
		}
		rulesText = strings.Join(lines, "\n")
	}

	today := dateOnly(time.Now())
	weeksRemaining := maxInt(1, daysBetween(today, dateOnly(commitment.TargetDate))/7)
	currentWeek := maxInt(1, daysBetween(dateOnly(commitment.CreatedAt), today)/7+1)

	baseline := commitment.BaselineLevel
	if baseline == "" {
		baseline = "beginner"
	}

	prompt := fmt.Sprintf(planPromptTemplate,
		commitment.Goal,
		commitment.TargetDate.Format("2006-01-02"),
		weeksRemaining,
		commitment.WeeklyHours,
		commitment.LearningStyle,
		baseline,
		currentWeek,
		risksText,
		rulesText,
	)

	genCtx, cancel := context.WithTimeout(ctx, p.genTimeout)
	defer cancel()

	raw, err := p.generator.GenerateJSON(genCtx, planSystemPrompt, prompt, "weekly_plan", planSchema)
	if err != nil {
		p.log.Error("Plan generation failed, using fallback plan", "user_id", userID, "error", err)
		return FallbackPlan(commitment.Goal)
	}

	var payload PlanPayload
	if err := decodeInto(raw, &payload); err != nil || len(payload.Tasks) == 0 {
		p.log.Error("Plan generation returned unusable payload, using fallback plan", "user_id", userID, "error", err)
		return FallbackPlan(commitment.Goal)
	}
	return payload
}

// persistPlan writes the new plan and its daily tasks in one transaction.
// The row-locked re-check inside the transaction resolves generation races:
// when a same-week active plan already exists and regeneration was not
// forced, that plan wins and this write becomes a no-op.
func (p *planService) persistPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time, forceRegenerate bool, payload PlanPayload) (*types.Plan, error) {
	var out *types.Plan

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := p.planRepo.GetActiveByUserForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active != nil && active.WeekStart.Equal(weekStart) && !forceRegenerate {
			out = active
			return nil
		}

		maxVersion, err := p.planRepo.MaxVersionForWeek(ctx, tx, userID, weekStart)
		if err != nil {
			return err
		}
		newVersion := maxVersion + 1
		if active != nil && active.Version >= newVersion {
			newVersion = active.Version + 1
		}

		if err := p.planRepo.DeactivateActive(ctx, tx, userID); err != nil {
			return err
		}

		rawPayload, err := json.Marshal(payload)
		if err != nil {
			return err
		}

		plan := &types.Plan{
			ID:        uuid.New(),
			UserID:    userID,
			WeekStart: weekStart,
			Version:   newVersion,
			Payload:   rawPayload,
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if _, err := p.planRepo.Create(ctx, tx, plan); err != nil {
			return err
		}

		tasks := materializeTasks(plan, payload.Tasks)
		if _, err := p.taskRepo.CreateBatch(ctx, tx, tasks); err != nil {
			return err
		}

		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// materializeTasks expands the payload's day-indexed tasks into dated rows.
// Day 1 is the week start; out-of-range days clamp to it. Unknown task types
// normalize to reading.
func materializeTasks(plan *types.Plan, tasks []PlanTask) []*types.DailyTask {
	out := make([]*types.DailyTask, 0, len(tasks))
	for _, t := range tasks {
		dayOffset := t.Day - 1
		if dayOffset < 0 {
			dayOffset = 0
		}
		timebox := t.TimeboxMin
		if timebox <= 0 {
			timebox = 45
		}
		out = append(out, &types.DailyTask{
			ID:         uuid.New(),
			PlanID:     plan.ID,
			UserID:     plan.UserID,
			Date:       plan.WeekStart.AddDate(0, 0, dayOffset),
			Task:       t.Task,
			TimeboxMin: timebox,
			TaskType:   types.NormalizeTaskType(t.Type),
			Status:     types.TaskStatusPending,
			CreatedAt:  time.Now(),
		})
	}
	return out
}

func (p *planService) planToDecision(plan *types.Plan) types.AgentDecision {
	var payload PlanPayload
	if len(plan.Payload) > 0 {
		_ = json.Unmarshal(plan.Payload, &payload)
	}
	weekFocus := payload.WeekFocus
	if weekFocus == "" {
		weekFocus = "Learning week"
	}

	nextTasks := make([]types.NextTask, 0, 3)
	for i, t := range payload.Tasks {
		if i == 3 {
			break
		}
		timebox := t.TimeboxMin
		if timebox <= 0 {
			timebox = 45
		}
		nextTasks = append(nextTasks, types.NextTask{
			Task:       t.Task,
			TimeboxMin: timebox,
			Type:       types.NormalizeTaskType(t.Type),
		})
	}

	return types.AgentDecision{
		Reason: fmt.Sprintf("Week %d: %s", plan.Version, weekFocus),
		Signals: types.Signals{
			Adherence: 1.0,
			Knowledge: 0.0,
			Retention: 0.0,
			Status:    types.UserStatusActive,
		},
		Action: types.Action{
			PlanAdjustment: types.AdjustmentKeep,
			RiskMitigation: []string{},
		},
		NextTasks:     nextTasks,
		ResourcesUsed: []types.ResourceUsed{},
		QualityScore:  1.0,
		QualityFlags:  []string{},
	}
}

// CurrentPlan returns the active plan with its tasks, or (nil, nil).
func (p *planService) CurrentPlan(ctx context.Context, userID uuid.UUID) (*types.Plan, error) {
	plan, err := p.planRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	return p.planRepo.GetWithTasks(ctx, nil, plan.ID)
}

func (p *planService) GetTodayTasks(ctx context.Context, userID uuid.UUID) ([]*types.DailyTask, error) {
	plan, err := p.planRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return []*types.DailyTask{}, nil
	}

	tasks, err := p.taskRepo.GetByPlanAndDateRange(ctx, nil, plan.ID, dateOnly(time.Now()), dateOnly(time.Now()))
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks a task completed. Completing an already-completed task
// is a no-op returning the existing row.
func (p *planService) CompleteTask(ctx context.Context, userID uuid.UUID, taskID uuid.UUID) (*types.DailyTask, error) {
	task, err := p.taskRepo.GetByID(ctx, nil, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	if task.Status == types.TaskStatusCompleted {
		return task, nil
	}

	now := time.Now()
	if err := p.taskRepo.MarkCompleted(ctx, nil, taskID, now); err != nil {
		return nil, err
	}
	task.Status = types.TaskStatusCompleted
	task.CompletedAt = &now
	return task, nil
}

// WeekStart returns the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// FallbackPlan is the deterministic five-weekday plan used when generation
// fails.
func FallbackPlan(goal string) PlanPayload {
	return PlanPayload{
		WeekFocus: "Getting started with " + goal,
		Tasks: []PlanTask{
			{Task: "Review fundamentals", TimeboxMin: 45, Type: "reading", Day: 1},
			{Task: "Practice exercise 1", TimeboxMin: 30, Type: "coding", Day: 2},
			{Task: "Continue learning", TimeboxMin: 45, Type: "reading", Day: 3},
			{Task: "Practice exercise 2", TimeboxMin: 30, Type: "coding", Day: 4},
			{Task: "Weekly review", TimeboxMin: 20, Type: "review", Day: 5},
		},
	}
}

// decodeInto re-marshals a generator response map into a typed struct.
func decodeInto(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}
