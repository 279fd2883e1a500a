package app

import (
	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/server"
)

func wireRouter(tracing *observability.Tracing, handlerset Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Tracing:     tracing,
		Identity:    mw.Identity,
		Healthcheck: handlerset.Healthcheck,
		Intake:      handlerset.Intake,
		Premortem:   handlerset.Premortem,
		Plan:        handlerset.Plan,
		Checkin:     handlerset.Checkin,
		Metrics:     handlerset.Metrics,
		Quiz:        handlerset.Quiz,
	})
}
