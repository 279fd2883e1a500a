package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&types.User{},
		&types.Commitment{},
		&types.PremortemRisk{},
		&types.Plan{},
		&types.DailyTask{},
		&types.Checkin{},
		&types.ConceptMastery{},
		&types.MemoryRule{},
		&types.Quiz{},
		&types.QuizQuestion{},
		&types.QuizAttempt{},
		&types.AgentRun{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// testEnv wires real repos and services over an in-memory database.
type testEnv struct {
	db *gorm.DB

	commitmentRepo repos.CommitmentRepo
	riskRepo       repos.PremortemRiskRepo
	planRepo       repos.PlanRepo
	taskRepo       repos.DailyTaskRepo
	checkinRepo    repos.CheckinRepo
	masteryRepo    repos.ConceptMasteryRepo
	ruleRepo       repos.MemoryRuleRepo
	quizRepo       repos.QuizRepo
	runRepo        repos.AgentRunRepo

	scoring   ScoringService
	memory    MemoryService
	decisions DecisionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	log := testLogger()

	env := &testEnv{
		db:             db,
		commitmentRepo: repos.NewCommitmentRepo(db, log),
		riskRepo:       repos.NewPremortemRiskRepo(db, log),
		planRepo:       repos.NewPlanRepo(db, log),
		taskRepo:       repos.NewDailyTaskRepo(db, log),
		checkinRepo:    repos.NewCheckinRepo(db, log),
		masteryRepo:    repos.NewConceptMasteryRepo(db, log),
		ruleRepo:       repos.NewMemoryRuleRepo(db, log),
		quizRepo:       repos.NewQuizRepo(db, log),
		runRepo:        repos.NewAgentRunRepo(db, log),
	}
	env.scoring = NewScoringService(log, env.planRepo, env.taskRepo, env.quizRepo, env.masteryRepo, env.checkinRepo, env.commitmentRepo)
	env.memory = NewMemoryService(log, env.ruleRepo)
	env.decisions = NewDecisionService(log, env.scoring, env.commitmentRepo, env.riskRepo, env.runRepo)
	return env
}

func (env *testEnv) seedCommitment(t *testing.T, userID uuid.UUID, goal string, weeksOut int) *types.Commitment {
	t.Helper()

	commitment := &types.Commitment{
		ID:            uuid.New(),
		UserID:        userID,
		Goal:          goal,
		TargetDate:    dateOnly(time.Now()).AddDate(0, 0, 7*weeksOut),
		WeeklyHours:   10,
		LearningStyle: types.LearningStyleMixed,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}
	if _, err := env.commitmentRepo.Create(context.Background(), nil, commitment); err != nil {
		t.Fatalf("seed commitment: %v", err)
	}
	return commitment
}

func (env *testEnv) seedCheckin(t *testing.T, userID uuid.UUID, date time.Time) {
	t.Helper()

	checkin := &types.Checkin{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      dateOnly(date),
		Yesterday: "studied",
		CreatedAt: date,
	}
	if _, err := env.checkinRepo.Create(context.Background(), nil, checkin); err != nil {
		t.Fatalf("seed checkin: %v", err)
	}
}

func (env *testEnv) seedPlanWithTasks(t *testing.T, userID uuid.UUID, completed, pending int) *types.Plan {
	t.Helper()

	plan := &types.Plan{
		ID:        uuid.New(),
		UserID:    userID,
		WeekStart: WeekStart(time.Now()),
		Version:   1,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if _, err := env.planRepo.Create(context.Background(), nil, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}

	now := time.Now()
	today := dateOnly(now)
	tasks := make([]*types.DailyTask, 0, completed+pending)
	for i := 0; i < completed; i++ {
		completedAt := now
		tasks = append(tasks, &types.DailyTask{
			ID:          uuid.New(),
			PlanID:      plan.ID,
			UserID:      userID,
			Date:        today,
			Task:        fmt.Sprintf("done task %d", i),
			TimeboxMin:  45,
			TaskType:    types.TaskTypeReading,
			Status:      types.TaskStatusCompleted,
			CompletedAt: &completedAt,
			CreatedAt:   now,
		})
	}
	for i := 0; i < pending; i++ {
		tasks = append(tasks, &types.DailyTask{
			ID:         uuid.New(),
			PlanID:     plan.ID,
			UserID:     userID,
			Date:       today,
			Task:       fmt.Sprintf("pending task %d", i),
			TimeboxMin: 45,
			TaskType:   types.TaskTypeReading,
			Status:     types.TaskStatusPending,
			CreatedAt:  now,
		})
	}
	if len(tasks) > 0 {
		if _, err := env.taskRepo.CreateBatch(context.Background(), nil, tasks); err != nil {
			t.Fatalf("seed tasks: %v", err)
		}
	}
	return plan
}

// fakeGenerator serves scripted responses keyed by schema name.
type fakeGenerator struct {
	responses map[string]map[string]any
	err       error
	calls     int
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	resp, ok := f.responses[schemaName]
	if !ok {
		return nil, fmt.Errorf("no scripted response for schema %q", schemaName)
	}
	return resp, nil
}

type fakeRetriever struct {
	resources []types.ResourceUsed
	err       error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]types.ResourceUsed, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resources, nil
}
