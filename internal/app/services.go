package app

import (
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type Services struct {
	Scoring   services.ScoringService
	Decision  services.DecisionService
	Memory    services.MemoryService
	Intake    services.IntakeService
	Premortem services.PremortemService
	Plan      services.PlanService
	Checkin   services.CheckinService
	Quiz      services.QuizService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, tracing *observability.Tracing, clients Clients, reposet Repos) Services {
	scoring := services.NewScoringService(
		log,
		reposet.Plan,
		reposet.DailyTask,
		reposet.Quiz,
		reposet.ConceptMastery,
		reposet.Checkin,
		reposet.Commitment,
	)
	decision := services.NewDecisionService(log, scoring, reposet.Commitment, reposet.PremortemRisk, reposet.AgentRun)
	memory := services.NewMemoryService(log, reposet.MemoryRule)

	intake := services.NewIntakeService(log, db, tracing, clients.Generator, cfg.GeneratorTimeout, reposet.Commitment, decision)
	premortem := services.NewPremortemService(log, db, tracing, clients.Generator, cfg.GeneratorTimeout, reposet.Commitment, reposet.PremortemRisk, decision)
	plan := services.NewPlanService(
		log,
		db,
		tracing,
		clients.Generator,
		clients.PlanLock,
		cfg.GeneratorTimeout,
		reposet.Plan,
		reposet.DailyTask,
		reposet.Commitment,
		reposet.PremortemRisk,
		memory,
		decision,
	)
	checkin := services.NewCheckinService(
		log,
		tracing,
		clients.Generator,
		clients.Retriever,
		cfg.GeneratorTimeout,
		reposet.Commitment,
		reposet.Plan,
		reposet.DailyTask,
		reposet.Checkin,
		memory,
		decision,
	)
	quiz := services.NewQuizService(log, tracing, clients.Generator, cfg.GeneratorTimeout, reposet.Quiz, reposet.ConceptMastery, reposet.Commitment)

	return Services{
		Scoring:   scoring,
		Decision:  decision,
		Memory:    memory,
		Intake:    intake,
		Premortem: premortem,
		Plan:      plan,
		Checkin:   checkin,
		Quiz:      quiz,
	}
}
