package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

// Metrics is the full signal snapshot served by the metrics summary endpoint.
type Metrics struct {
	AdherenceScore        float64          `json:"adherence_score"`
	KnowledgeScore        float64          `json:"knowledge_score"`
	RetentionScore        float64          `json:"retention_score"`
	RecoveryEffectiveness float64          `json:"recovery_effectiveness"`
	CurrentWeek           int              `json:"current_week"`
	WeeksRemaining        int              `json:"weeks_remaining"`
	Status                types.UserStatus `json:"status"`
}

type ScoringService interface {
	Adherence(ctx context.Context, userID uuid.UUID) (float64, error)
	Knowledge(ctx context.Context, userID uuid.UUID) (float64, error)
	Retention(ctx context.Context, userID uuid.UUID) (float64, error)
	RecoveryEffectiveness(ctx context.Context, userID uuid.UUID) (float64, error)
	UserStatus(ctx context.Context, userID uuid.UUID) (types.UserStatus, error)
	Signals(ctx context.Context, userID uuid.UUID) (types.Signals, error)
	FullMetrics(ctx context.Context, userID uuid.UUID) (Metrics, error)
}

type scoringService struct {
	log            *logger.Logger
	planRepo       repos.PlanRepo
	taskRepo       repos.DailyTaskRepo
	quizRepo       repos.QuizRepo
	masteryRepo    repos.ConceptMasteryRepo
	checkinRepo    repos.CheckinRepo
	commitmentRepo repos.CommitmentRepo
}

func NewScoringService(
	baseLog *logger.Logger,
	planRepo repos.PlanRepo,
	taskRepo repos.DailyTaskRepo,
	quizRepo repos.QuizRepo,
	masteryRepo repos.ConceptMasteryRepo,
	checkinRepo repos.CheckinRepo,
	commitmentRepo repos.CommitmentRepo,
) ScoringService {
	return &scoringService{
		log:            baseLog.With("service", "ScoringService"),
		planRepo:       planRepo,
		taskRepo:       taskRepo,
		quizRepo:       quizRepo,
		masteryRepo:    masteryRepo,
		checkinRepo:    checkinRepo,
		commitmentRepo: commitmentRepo,
	}
}

const adherenceWindowDays = 7

// Adherence is the completed/total ratio over the trailing week of the active
// plan. No active plan scores 0.0; a plan with no tasks in the window scores
// a perfect 1.0.
func (s *scoringService) Adherence(ctx context.Context, userID uuid.UUID) (float64, error) {
	plan, err := s.planRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	if plan == nil {
		return 0.0, nil
	}

	today := dateOnly(time.Now())
	since := today.AddDate(0, 0, -adherenceWindowDays)

	tasks, err := s.taskRepo.GetByPlanAndDateRange(ctx, nil, plan.ID, since, today)
	if err != nil {
		return 0, err
	}
	if len(tasks) == 0 {
		return 1.0, nil
	}

	completed := 0
	for _, t := range tasks {
		if t.Status == types.TaskStatusCompleted {
			completed++
		}
	}
	return round2(float64(completed) / float64(len(tasks))), nil
}

// Knowledge is the mean score of the five most recently created completed,
// scored quizzes. No such quizzes scores 0.0.
func (s *scoringService) Knowledge(ctx context.Context, userID uuid.UUID) (float64, error) {
	quizzes, err := s.quizRepo.GetRecentCompletedQuizzes(ctx, nil, userID, 5)
	if err != nil {
		return 0, err
	}
	if len(quizzes) == 0 {
		return 0.0, nil
	}

	sum := 0.0
	for _, q := range quizzes {
		if q.Score != nil {
			sum += *q.Score
		}
	}
	return round2(sum / float64(len(quizzes))), nil
}

// Retention is total correct over total seen across all concept mastery rows.
func (s *scoringService) Retention(ctx context.Context, userID uuid.UUID) (float64, error) {
	totals, err := s.masteryRepo.Totals(ctx, nil, userID)
	if err != nil {
		return 0, err
	}
	if totals.TimesSeen == 0 {
		return 0.0, nil
	}
	return round2(float64(totals.TimesCorrect) / float64(totals.TimesSeen)), nil
}

// RecoveryEffectiveness will analyze historical status transitions once those
// are recorded. Fixed placeholder until then.
func (s *scoringService) RecoveryEffectiveness(ctx context.Context, userID uuid.UUID) (float64, error) {
	return 0.8, nil
}

const checkinWindowDays = 3

// UserStatus classifies engagement. Going silent dominates: zero check-ins in
// the trailing three days is at_risk no matter how high adherence is.
func (s *scoringService) UserStatus(ctx context.Context, userID uuid.UUID) (types.UserStatus, error) {
	adherence, err := s.Adherence(ctx, userID)
	if err != nil {
		return "", err
	}

	since := dateOnly(time.Now()).AddDate(0, 0, -checkinWindowDays)
	recentCheckins, err := s.checkinRepo.CountSince(ctx, nil, userID, since)
	if err != nil {
		return "", err
	}

	switch {
	case adherence < 0.3 || recentCheckins == 0:
		return types.UserStatusAtRisk, nil
	case adherence < 0.6:
		return types.UserStatusRecovering, nil
	default:
		return types.UserStatusActive, nil
	}
}

func (s *scoringService) Signals(ctx context.Context, userID uuid.UUID) (types.Signals, error) {
	adherence, err := s.Adherence(ctx, userID)
	if err != nil {
		return types.Signals{}, err
	}
	knowledge, err := s.Knowledge(ctx, userID)
	if err != nil {
		return types.Signals{}, err
	}
	retention, err := s.Retention(ctx, userID)
	if err != nil {
		return types.Signals{}, err
	}
	status, err := s.UserStatus(ctx, userID)
	if err != nil {
		return types.Signals{}, err
	}
	return types.Signals{
		Adherence: adherence,
		Knowledge: knowledge,
		Retention: retention,
		Status:    status,
	}, nil
}

func (s *scoringService) FullMetrics(ctx context.Context, userID uuid.UUID) (Metrics, error) {
	signals, err := s.Signals(ctx, userID)
	if err != nil {
		return Metrics{}, err
	}
	recovery, err := s.RecoveryEffectiveness(ctx, userID)
	if err != nil {
		return Metrics{}, err
	}

	currentWeek := 1
	weeksRemaining := 4

	commitment, err := s.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil {
		return Metrics{}, err
	}
	if commitment != nil {
		today := dateOnly(time.Now())
		currentWeek = maxInt(1, daysBetween(dateOnly(commitment.CreatedAt), today)/7+1)
		weeksRemaining = maxInt(0, daysBetween(today, dateOnly(commitment.TargetDate))/7)
	}

	return Metrics{
		AdherenceScore:        signals.Adherence,
		KnowledgeScore:        signals.Knowledge,
		RetentionScore:        signals.Retention,
		RecoveryEffectiveness: recovery,
		CurrentWeek:           currentWeek,
		WeeksRemaining:        weeksRemaining,
		Status:                signals.Status,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b. Negative when b is earlier.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
