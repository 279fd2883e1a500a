package app

import (
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/repos"
)

type Repos struct {
	User           repos.UserRepo
	Commitment     repos.CommitmentRepo
	PremortemRisk  repos.PremortemRiskRepo
	Plan           repos.PlanRepo
	DailyTask      repos.DailyTaskRepo
	Checkin        repos.CheckinRepo
	ConceptMastery repos.ConceptMasteryRepo
	MemoryRule     repos.MemoryRuleRepo
	Quiz           repos.QuizRepo
	AgentRun       repos.AgentRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:           repos.NewUserRepo(db, log),
		Commitment:     repos.NewCommitmentRepo(db, log),
		PremortemRisk:  repos.NewPremortemRiskRepo(db, log),
		Plan:           repos.NewPlanRepo(db, log),
		DailyTask:      repos.NewDailyTaskRepo(db, log),
		Checkin:        repos.NewCheckinRepo(db, log),
		ConceptMastery: repos.NewConceptMasteryRepo(db, log),
		MemoryRule:     repos.NewMemoryRuleRepo(db, log),
		Quiz:           repos.NewQuizRepo(db, log),
		AgentRun:       repos.NewAgentRunRepo(db, log),
	}
}
