package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type PremortemHandler struct {
	log          *logger.Logger
	premortemSvc services.PremortemService
}

func NewPremortemHandler(log *logger.Logger, premortemSvc services.PremortemService) *PremortemHandler {
	return &PremortemHandler{
		log:          log.With("handler", "PremortemHandler"),
		premortemSvc: premortemSvc,
	}
}

type premortemRequest struct {
	FailureReasons []string `json:"failure_reasons" binding:"required,min=1"`
}

// POST /api/v1/premortem
// Turn self-identified failure reasons into prioritized mitigations.
func (h *PremortemHandler) ProcessPremortem(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	var req premortemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	decision, err := h.premortemSvc.ProcessPremortem(c.Request.Context(), userID, req.FailureReasons)
	if err != nil {
		h.log.Error("Premortem failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "premortem_failed", err)
		return
	}
	RespondOK(c, decision)
}
