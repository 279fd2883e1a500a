package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/learnloop/learnloop-backend/internal/handlers"
	"github.com/learnloop/learnloop-backend/internal/observability"
)

type RouterConfig struct {
	Tracing     *observability.Tracing
	Identity    gin.HandlerFunc
	Healthcheck *handlers.HealthcheckHandler
	Intake      *handlers.IntakeHandler
	Premortem   *handlers.PremortemHandler
	Plan        *handlers.PlanHandler
	Checkin     *handlers.CheckinHandler
	Metrics     *handlers.MetricsHandler
	Quiz        *handlers.QuizHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("learnloop",
		otelgin.WithTracerProvider(cfg.Tracing.TracerProvider()),
		otelgin.WithPropagators(cfg.Tracing.Propagator()),
	))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.Healthcheck.Healthcheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api/v1")
	api.Use(cfg.Identity)
	{
		api.POST("/intake", cfg.Intake.CreateCommitment)
		api.GET("/commitment/current", cfg.Intake.GetCurrentCommitment)
		api.POST("/premortem", cfg.Premortem.ProcessPremortem)
		api.POST("/plan/weekly", cfg.Plan.GenerateWeeklyPlan)
		api.GET("/plan/current", cfg.Plan.GetCurrentPlan)
		api.GET("/tasks/today", cfg.Plan.GetTodayTasks)
		api.PUT("/tasks/:id/complete", cfg.Plan.CompleteTask)
		api.POST("/checkin/daily", cfg.Checkin.ProcessCheckin)
		api.GET("/metrics/summary", cfg.Metrics.GetMetricsSummary)
		api.POST("/quiz/generate", cfg.Quiz.GenerateQuiz)
		api.POST("/quiz/:id/submit", cfg.Quiz.SubmitQuiz)
	}

	return router
}
