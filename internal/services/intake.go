package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

const intakeSystemPrompt = `You are an AI learning coach helping users create a commitment contract for their learning goal.
Your job is to:
1. Acknowledge their goal and timeline
2. Assess if the timeline is realistic given their available hours
3. Suggest an initial learning approach based on their style
4. Provide encouraging but realistic feedback

Always be supportive but honest about what's achievable.`

const intakePromptTemplate = `User wants to learn:
Goal: %s
Target Date: %s
Weekly Hours Available: %d
Background: %s
Current Level: %s
Learning Style Preference: %s

Create a personalized response that:
1. Validates their goal
2. Estimates if the timeline is achievable
3. Suggests the best approach for their learning style
4. Provides 1-2 initial recommended actions`

var intakeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"reason":               map[string]any{"type": "string"},
		"timeline_assessment":  map[string]any{"type": "string"},
		"recommended_approach": map[string]any{"type": "string"},
		"initial_tasks":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{"reason", "timeline_assessment", "initial_tasks"},
}

type IntakeInput struct {
	Goal          string
	TargetDate    time.Time
	WeeklyHours   int
	Background    string
	BaselineLevel string
	LearningStyle string
}

type IntakeService interface {
	CreateCommitment(ctx context.Context, userID uuid.UUID, input IntakeInput) (types.AgentDecision, error)
	ActiveCommitment(ctx context.Context, userID uuid.UUID) (*types.Commitment, error)
}

type intakeService struct {
	log            *logger.Logger
	db             *gorm.DB
	tracing        *observability.Tracing
	generator      openai.Generator
	genTimeout     time.Duration
	commitmentRepo repos.CommitmentRepo
	decisions      DecisionService
}

func NewIntakeService(
	baseLog *logger.Logger,
	db *gorm.DB,
	tracing *observability.Tracing,
	generator openai.Generator,
	genTimeout time.Duration,
	commitmentRepo repos.CommitmentRepo,
	decisions DecisionService,
) IntakeService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &intakeService{
		log:            baseLog.With("service", "IntakeService"),
		db:             db,
		tracing:        tracing,
		generator:      generator,
		genTimeout:     genTimeout,
		commitmentRepo: commitmentRepo,
		decisions:      decisions,
	}
}

type intakeAnalysis struct {
	Reason              string   `json:"reason"`
	TimelineAssessment  string   `json:"timeline_assessment"`
	RecommendedApproach string   `json:"recommended_approach"`
	InitialTasks        []string `json:"initial_tasks"`
}

// CreateCommitment records a new commitment contract. Any prior active
// commitment is deactivated, never deleted.
func (s *intakeService) CreateCommitment(ctx context.Context, userID uuid.UUID, input IntakeInput) (types.AgentDecision, error) {
	ctx, span := s.tracing.Start(ctx, "intake.create_commitment")
	defer span.End()

	s.log.Info("Creating commitment", "user_id", userID)

	commitment := &types.Commitment{
		ID:            uuid.New(),
		UserID:        userID,
		Goal:          input.Goal,
		TargetDate:    dateOnly(input.TargetDate),
		WeeklyHours:   input.WeeklyHours,
		Background:    input.Background,
		BaselineLevel: input.BaselineLevel,
		LearningStyle: types.ParseLearningStyle(input.LearningStyle),
		IsActive:      true,
		CreatedAt:     time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.commitmentRepo.DeactivateActive(ctx, tx, userID); err != nil {
			return err
		}
		_, err := s.commitmentRepo.Create(ctx, tx, commitment)
		return err
	})
	if err != nil {
		return types.AgentDecision{}, err
	}

	analysis := s.analyze(ctx, commitment)

	nextTasks := []types.NextTask{
		{Task: analysis.InitialTasks[0], TimeboxMin: 15, Type: types.TaskTypeReview, Priority: 1},
	}
	if len(analysis.InitialTasks) > 1 {
		nextTasks = append(nextTasks, types.NextTask{
			Task: analysis.InitialTasks[1], TimeboxMin: 20, Type: types.TaskTypeReading, Priority: 2,
		})
	}

	decision := types.AgentDecision{
		Reason: analysis.Reason,
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

	_ = s.decisions.RecordRun(ctx, userID, "intake", decision)
	return decision, nil
}

// analyze asks the generator for an intake assessment, falling back to a
// deterministic next step on failure.
func (s *intakeService) analyze(ctx context.Context, commitment *types.Commitment) intakeAnalysis {
	fallback := intakeAnalysis{
		Reason:       "Commitment created successfully. Let's start with a premortem assessment.",
		InitialTasks: []string{"Complete premortem assessment"},
	}

	background := commitment.Background
	if background == "" {
		background = "Not specified"
	}
	baseline := commitment.BaselineLevel
	if baseline == "" {
		baseline = "Not specified"
	}

	prompt := fmt.Sprintf(intakePromptTemplate,
		commitment.Goal,
		commitment.TargetDate.Format("2006-01-02"),
		commitment.WeeklyHours,
		background,
		baseline,
		commitment.LearningStyle,
	)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, intakeSystemPrompt, prompt, "intake_analysis", intakeSchema)
	if err != nil {
		s.log.Error("Intake analysis failed, using fallback", "error", err)
		return fallback
	}

	var analysis intakeAnalysis
	if err := decodeInto(raw, &analysis); err != nil || analysis.Reason == "" || len(analysis.InitialTasks) == 0 {
		s.log.Error("Intake analysis returned unusable payload, using fallback", "error", err)
		return fallback
	}
	return analysis
}

func (s *intakeService) ActiveCommitment(ctx context.Context, userID uuid.UUID) (*types.Commitment, error) {
	return s.commitmentRepo.GetActiveByUser(ctx, nil, userID)
}
