package app

import (
	"github.com/learnloop/learnloop-backend/internal/handlers"
	"github.com/learnloop/learnloop-backend/internal/logger"
)

type Handlers struct {
	Healthcheck *handlers.HealthcheckHandler
	Intake      *handlers.IntakeHandler
	Premortem   *handlers.PremortemHandler
	Plan        *handlers.PlanHandler
	Checkin     *handlers.CheckinHandler
	Metrics     *handlers.MetricsHandler
	Quiz        *handlers.QuizHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	return Handlers{
		Healthcheck: handlers.NewHealthcheckHandler(log),
		Intake:      handlers.NewIntakeHandler(log, serviceset.Intake),
		Premortem:   handlers.NewPremortemHandler(log, serviceset.Premortem),
		Plan:        handlers.NewPlanHandler(log, serviceset.Plan),
		Checkin:     handlers.NewCheckinHandler(log, serviceset.Checkin),
		Metrics:     handlers.NewMetricsHandler(log, serviceset.Scoring),
		Quiz:        handlers.NewQuizHandler(log, serviceset.Quiz),
	}
}
