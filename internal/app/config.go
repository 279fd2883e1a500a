package app

import (
	"time"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/utils"
)

type Config struct {
	Port             string
	Environment      string
	Version          string
	GeneratorTimeout time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	port := utils.GetEnv("PORT", "8080", log)
	environment := utils.GetEnv("ENVIRONMENT", "development", log)
	version := utils.GetEnv("SERVICE_VERSION", "dev", log)
	genTimeoutSeconds := utils.GetEnvAsInt("GENERATOR_TIMEOUT_SECONDS", 60, log)
	return Config{
		Port:             port,
		Environment:      environment,
		Version:          version,
		GeneratorTimeout: time.Duration(genTimeoutSeconds) * time.Second,
	}
}
