package app

import (
	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/clients/ragworker"
	"github.com/learnloop/learnloop-backend/internal/clients/redis"
	"github.com/learnloop/learnloop-backend/internal/logger"
)

type Clients struct {
	Generator openai.Generator
	Retriever ragworker.Retriever
	PlanLock  redis.PlanLock
}

func wireClients(log *logger.Logger) (Clients, error) {
	generator, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, err
	}

	retriever, err := ragworker.NewClient(log)
	if err != nil {
		return Clients{}, err
	}

	// The plan lock is an optimization; the service degrades to the
	// transactional re-check when redis is unreachable.
	lock, err := redis.NewPlanLock(log)
	if err != nil {
		log.Warn("Plan lock unavailable, plan generation will rely on row locks only", "error", err)
		lock = nil
	}

	return Clients{
		Generator: generator,
		Retriever: retriever,
		PlanLock:  lock,
	}, nil
}
