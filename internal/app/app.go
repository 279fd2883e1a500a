package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/db"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Tracing  *observability.Tracing
	Clients  Clients
	Repos    Repos
	Services Services
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	tracing, err := observability.NewTracing(ctx, log, observability.Config{
		ServiceName: "learnloop",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	clientset, err := wireClients(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, tracing, clientset, reposet)
	handlerset := wireHandlers(log, serviceset)
	mw := wireMiddleware(log)
	router := wireRouter(tracing, handlerset, mw)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Tracing:  tracing,
		Clients:  clientset,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Clients.PlanLock != nil {
		_ = a.Clients.PlanLock.Close()
	}
	if a.Tracing != nil {
		_ = a.Tracing.Shutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
