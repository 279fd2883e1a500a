package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type MetricsHandler struct {
	log        *logger.Logger
	scoringSvc services.ScoringService
}

func NewMetricsHandler(log *logger.Logger, scoringSvc services.ScoringService) *MetricsHandler {
	return &MetricsHandler{
		log:        log.With("handler", "MetricsHandler"),
		scoringSvc: scoringSvc,
	}
}

// GET /api/v1/metrics/summary
func (h *MetricsHandler) GetMetricsSummary(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	metrics, err := h.scoringSvc.FullMetrics(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Metrics summary failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "metrics_failed", err)
		return
	}
	RespondOK(c, metrics)
}
