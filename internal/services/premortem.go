package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

const premortemSystemPrompt = `You are an AI learning coach helping users identify potential obstacles to their learning goals.
Your job is to:
1. Take their stated failure reasons seriously
2. Identify specific, actionable mitigations for each risk
3. Prioritize risks by likelihood and impact
4. Be realistic but not discouraging

Focus on practical, concrete mitigations that the user can actually implement.`

const premortemPromptTemplate = `The user's goal is: %s
Timeline: %d weeks
Weekly hours: %d

The user identified these potential reasons they might fail:
%s

For each risk, provide:
1. A specific mitigation strategy
2. A priority (1-5, where 1 is highest priority)`

var premortemSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"risks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"risk":       map[string]any{"type": "string"},
					"mitigation": map[string]any{"type": "string"},
					"priority":   map[string]any{"type": "integer"},
				},
				"required": []string{"risk", "mitigation", "priority"},
			},
		},
		"summary":     map[string]any{"type": "string"},
		"key_insight": map[string]any{"type": "string"},
	},
	"required": []string{"risks", "summary"},
}

const maxFailureReasons = 5

type PremortemService interface {
	ProcessPremortem(ctx context.Context, userID uuid.UUID, failureReasons []string) (types.AgentDecision, error)
}

type premortemService struct {
	log            *logger.Logger
	db             *gorm.DB
	tracing        *observability.Tracing
	generator      openai.Generator
	genTimeout     time.Duration
	commitmentRepo repos.CommitmentRepo
	riskRepo       repos.PremortemRiskRepo
	decisions      DecisionService
}

func NewPremortemService(
	baseLog *logger.Logger,
	db *gorm.DB,
	tracing *observability.Tracing,
	generator openai.Generator,
	genTimeout time.Duration,
	commitmentRepo repos.CommitmentRepo,
	riskRepo repos.PremortemRiskRepo,
	decisions DecisionService,
) PremortemService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &premortemService{
		log:            baseLog.With("service", "PremortemService"),
		db:             db,
		tracing:        tracing,
		generator:      generator,
		genTimeout:     genTimeout,
		commitmentRepo: commitmentRepo,
		riskRepo:       riskRepo,
		decisions:      decisions,
	}
}

type premortemAnalysis struct {
	Risks []struct {
		Risk       string `json:"risk"`
		Mitigation string `json:"mitigation"`
		Priority   int    `json:"priority"`
	} `json:"risks"`
	Summary    string `json:"summary"`
	KeyInsight string `json:"key_insight"`
}

// ProcessPremortem turns self-reported failure reasons into prioritized
// mitigations. Each submission fully replaces the commitment's risk set.
func (s *premortemService) ProcessPremortem(ctx context.Context, userID uuid.UUID, failureReasons []string) (types.AgentDecision, error) {
	ctx, span := s.tracing.Start(ctx, "premortem.process")
	defer span.End()

	commitment, err := s.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return types.AgentDecision{}, err
	}
	if commitment == nil {
		return s.decisions.NoCommitmentDecision(), nil
	}

	if len(failureReasons) > maxFailureReasons {
		failureReasons = failureReasons[:maxFailureReasons]
	}

	analysis := s.analyze(ctx, commitment, failureReasons)

	now := time.Now()
	risks := make([]*types.PremortemRisk, 0, len(analysis.Risks))
	for _, r := range analysis.Risks {
		priority := r.Priority
		if priority < 1 {
			priority = 5
		}
		risks = append(risks, &types.PremortemRisk{
			ID:           uuid.New(),
			CommitmentID: commitment.ID,
			Risk:         r.Risk,
			Mitigation:   r.Mitigation,
			Priority:     priority,
			CreatedAt:    now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.riskRepo.DeleteByCommitment(ctx, tx, commitment.ID); err != nil {
			return err
		}
		_, err := s.riskRepo.CreateBatch(ctx, tx, risks)
		return err
	})
	if err != nil {
		return types.AgentDecision{}, err
	}

	mitigations := make([]string, 0, maxRiskMitigations)
	for i, r := range analysis.Risks {
		if i == maxRiskMitigations {
			break
		}
		m := r.Mitigation
		if runes := []rune(m); len(runes) > 50 {
			m = string(runes[:50])
		}
		mitigations = append(mitigations, m)
	}

	firstWord := "basics"
	if fields := strings.Fields(commitment.Goal); len(fields) > 0 {
		firstWord = fields[0]
	}

	decision := types.AgentDecision{
		Reason: analysis.Summary,
		Signals: types.Signals{
			Adherence: 1.0,
			Knowledge: 0.0,
			Retention: 0.0,
			Status:    types.UserStatusActive,
		},
		Action: types.Action{
			PlanAdjustment: types.AdjustmentKeep,
			RiskMitigation: mitigations,
		},
		NextTasks: []types.NextTask{
			{Task: "Review your weekly learning plan", TimeboxMin: 20, Type: types.TaskTypeReading},
			{Task: "Start with: " + firstWord, TimeboxMin: 45, Type: types.TaskTypeReading},
		},
		ResourcesUsed: []types.ResourceUsed{},
		QualityScore:  1.0,
		QualityFlags:  []string{},
	}

	_ = s.decisions.RecordRun(ctx, userID, "premortem", decision)
	return decision, nil
}

func (s *premortemService) analyze(ctx context.Context, commitment *types.Commitment, failureReasons []string) premortemAnalysis {
	weeksRemaining := maxInt(1, daysBetween(dateOnly(time.Now()), dateOnly(commitment.TargetDate))/7)

	lines := make([]string, 0, len(failureReasons))
	for i, r := range failureReasons {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, r))
	}

	prompt := fmt.Sprintf(premortemPromptTemplate,
		commitment.Goal,
		weeksRemaining,
		commitment.WeeklyHours,
		strings.Join(lines, "\n"),
	)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, premortemSystemPrompt, prompt, "premortem_analysis", premortemSchema)
	if err == nil {
		var analysis premortemAnalysis
		if decErr := decodeInto(raw, &analysis); decErr == nil && len(analysis.Risks) > 0 && analysis.Summary != "" {
			return analysis
		}
	} else {
		s.log.Error("Premortem analysis failed, using fallback mitigations", "error", err)
	}

	fallback := premortemAnalysis{Summary: "Risk assessment complete. Consider these mitigations."}
	for i, r := range failureReasons {
		fallback.Risks = append(fallback.Risks, struct {
			Risk       string `json:"risk"`
			Mitigation string `json:"mitigation"`
			Priority   int    `json:"priority"`
		}{Risk: r, Mitigation: "Create accountability checkpoint", Priority: i + 1})
	}
	return fallback
}
