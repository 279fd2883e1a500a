package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/clients/ragworker"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

const checkinSystemPrompt = `You are an AI learning coach processing a daily check-in.
Your job is to:
1. Acknowledge what they accomplished yesterday
2. Help them plan for today based on their current state
3. If they have blockers, provide specific guidance
4. Suggest fallback mini-tasks if they're struggling

Be encouraging but honest. Focus on momentum over perfection.`

const checkinPromptTemplate = `User's daily check-in:
Yesterday: %s
Today's plan: %s
Blockers: %s

Current plan tasks for today:
%s

Their goal: %s
Status: Week %d, %d weeks remaining
Recent patterns: %s

Provide:
1. Your assessment of their progress
2. Recommended next task (specific and achievable)
3. A fallback mini-task (15-20 min) if they're struggling
4. If blocker present, specific advice on overcoming it`

var checkinSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"assessment":        map[string]any{"type": "string"},
		"next_task":         map[string]any{"type": "string"},
		"next_task_timebox": map[string]any{"type": "integer"},
		"fallback_task":     map[string]any{"type": "string"},
		"blocker_advice":    map[string]any{"type": "string"},
		"motivation_note":   map[string]any{"type": "string"},
	},
	"required": []string{"assessment", "next_task", "fallback_task"},
}

type CheckinInput struct {
	Yesterday string
	Today     string
	Blockers  string
}

type CheckinService interface {
	ProcessCheckin(ctx context.Context, userID uuid.UUID, input CheckinInput) (types.AgentDecision, error)
}

type checkinService struct {
	log            *logger.Logger
	tracing        *observability.Tracing
	generator      openai.Generator
	retriever      ragworker.Retriever
	genTimeout     time.Duration
	commitmentRepo repos.CommitmentRepo
	planRepo       repos.PlanRepo
	taskRepo       repos.DailyTaskRepo
	checkinRepo    repos.CheckinRepo
	memory         MemoryService
	decisions      DecisionService
}

func NewCheckinService(
	baseLog *logger.Logger,
	tracing *observability.Tracing,
	generator openai.Generator,
	retriever ragworker.Retriever,
	genTimeout time.Duration,
	commitmentRepo repos.CommitmentRepo,
	planRepo repos.PlanRepo,
	taskRepo repos.DailyTaskRepo,
	checkinRepo repos.CheckinRepo,
	memory MemoryService,
	decisions DecisionService,
) CheckinService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &checkinService{
		log:            baseLog.With("service", "CheckinService"),
		tracing:        tracing,
		generator:      generator,
		retriever:      retriever,
		genTimeout:     genTimeout,
		commitmentRepo: commitmentRepo,
		planRepo:       planRepo,
		taskRepo:       taskRepo,
		checkinRepo:    checkinRepo,
		memory:         memory,
		decisions:      decisions,
	}
}

type checkinGuidance struct {
	Assessment      string `json:"assessment"`
	NextTask        string `json:"next_task"`
	NextTaskTimebox int    `json:"next_task_timebox"`
	FallbackTask    string `json:"fallback_task"`
	BlockerAdvice   string `json:"blocker_advice"`
	MotivationNote  string `json:"motivation_note"`
}

// ProcessCheckin persists the daily self-report, updates learned patterns,
// and answers with guidance composed from live signals.
func (s *checkinService) ProcessCheckin(ctx context.Context, userID uuid.UUID, input CheckinInput) (types.AgentDecision, error) {
	ctx, span := s.tracing.Start(ctx, "checkin.process")
	defer span.End()

	s.log.Info("Processing check-in", "user_id", userID, "has_blocker", input.Blockers != "")

	commitment, err := s.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if commitment == nil {
		return s.decisions.NoCommitmentDecision(), nil
	}

	var resources []types.ResourceUsed
	if input.Blockers != "" {
		resources = s.blockerResources(ctx, input.Blockers)
	}

	guidance := s.guide(ctx, userID, commitment, input)

	advice := guidance.BlockerAdvice
	if advice == "" {
		advice = guidance.MotivationNote
	}

	now := time.Now()
	checkin := &types.Checkin{
		ID:           uuid.New(),
		UserID:       userID,
		Date:         dateOnly(now),
		Yesterday:    input.Yesterday,
		Today:        input.Today,
		Blockers:     input.Blockers,
		NextTask:     guidance.NextTask,
		FallbackTask: guidance.FallbackTask,
		Advice:       advice,
		CreatedAt:    now,
	}
	if _, err := s.checkinRepo.Create(ctx, nil, checkin); err != nil {
		return types.AgentDecision{}, err
	}

	if err := s.memory.DetectPatterns(ctx, userID, input.Yesterday, input.Blockers); err != nil {
		s.log.Error("Memory pattern update failed", "user_id", userID, "error", err)
	}

	timebox := guidance.NextTaskTimebox
	if timebox <= 0 {
		timebox = 45
	}
	nextTasks := []types.NextTask{
		{Task: guidance.NextTask, TimeboxMin: timebox, Type: types.TaskTypeReading},
	}
	if guidance.FallbackTask != "" {
		nextTasks = append(nextTasks, types.NextTask{
			Task:       "[Fallback] " + guidance.FallbackTask,
			TimeboxMin: 20,
			Type:       types.TaskTypeReview,
		})
	}

	decision, err := s.decisions.BuildDecision(ctx, userID, guidance.Assessment, advice, nextTasks, resources, 1.0, nil)
	if err != nil {
		return types.AgentDecision{}, err
	}

	_ = s.decisions.RecordRun(ctx, userID, "checkin", decision)
	return decision, nil
}

// blockerResources fetches citations for a blocker. Lookup failures degrade
// to an empty list.
func (s *checkinService) blockerResources(ctx context.Context, blocker string) []types.ResourceUsed {
	if s.retriever == nil {
		return nil
	}
	resources, err := s.retriever.Retrieve(ctx, blocker, 3)
	if err != nil {
		s.log.Warn("Resource lookup unavailable", "error", err)
		return nil
	}
	return resources
}

func (s *checkinService) guide(ctx context.Context, userID uuid.UUID, commitment *types.Commitment, input CheckinInput) checkinGuidance {
	fallbackAdvice := ""
	if input.Blockers != "" {
		fallbackAdvice = "Try breaking the problem into smaller steps"
	}
	fallback := checkinGuidance{
		Assessment:      "Check-in received",
		NextTask:        "Continue with your planned learning",
		NextTaskTimebox: 45,
		FallbackTask:    "Review yesterday's concepts for 15 minutes",
		BlockerAdvice:   fallbackAdvice,
		MotivationNote:  "Keep up the momentum!",
	}

	todayLines := "No tasks planned"
	if plan, err := s.planRepo.GetActiveByUser(ctx, nil, userID); err == nil && plan != nil {
		today := dateOnly(time.Now())
		if tasks, err := s.taskRepo.GetByPlanAndDateRange(ctx, nil, plan.ID, today, today); err == nil && len(tasks) > 0 {
			lines := make([]string, 0, len(tasks))
			for _, t := range tasks {
				lines = append(lines, fmt.Sprintf("- %s (%dmin)", t.Task, t.TimeboxMin))
			}
			todayLines = strings.Join(lines, "\n")
		}
	}

	patterns := "None yet"
	if rules, err := s.memory.ListActiveRules(ctx, userID); err == nil && len(rules) > 0 {
		lines := make([]string, 0, 3)
		for i, r := range rules {
			if i == 3 {
				break
			}
			lines = append(lines, "- "+r.RuleValue)
		}
		patterns = strings.Join(lines, "\n")
	}

	today := dateOnly(time.Now())
	weeksRemaining := maxInt(1, daysBetween(today, dateOnly(commitment.TargetDate))/7)
	currentWeek := maxInt(1, daysBetween(dateOnly(commitment.CreatedAt), today)/7+1)

	prompt := fmt.Sprintf(checkinPromptTemplate,
		orDefault(input.Yesterday, "Not specified"),
		orDefault(input.Today, "Not specified"),
		orDefault(input.Blockers, "None"),
		todayLines,
		commitment.Goal,
		currentWeek,
		weeksRemaining,
		patterns,
	)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, checkinSystemPrompt, prompt, "checkin_guidance", checkinSchema)
	if err != nil {
		s.log.Error("Check-in guidance failed, using fallback", "error", err)
		return fallback
	}

	var guidance checkinGuidance
	if err := decodeInto(raw, &guidance); err != nil || guidance.NextTask == "" {
		s.log.Error("Check-in guidance returned unusable payload, using fallback", "error", err)
		return fallback
	}
	if guidance.Assessment == "" {
		guidance.Assessment = "Check-in processed"
	}
	return guidance
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
