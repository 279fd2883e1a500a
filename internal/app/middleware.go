package app

import (
	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
)

type Middleware struct {
	Identity gin.HandlerFunc
}

func wireMiddleware(log *logger.Logger) Middleware {
	return Middleware{
		Identity: middleware.Identity(log),
	}
}
