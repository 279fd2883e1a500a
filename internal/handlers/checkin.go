package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type CheckinHandler struct {
	log        *logger.Logger
	checkinSvc services.CheckinService
}

func NewCheckinHandler(log *logger.Logger, checkinSvc services.CheckinService) *CheckinHandler {
	return &CheckinHandler{
		log:        log.With("handler", "CheckinHandler"),
		checkinSvc: checkinSvc,
	}
}

type checkinRequest struct {
	Yesterday string `json:"yesterday"`
	Today     string `json:"today"`
	Blockers  string `json:"blockers"`
}

// POST /api/v1/checkin/daily
func (h *CheckinHandler) ProcessCheckin(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	var req checkinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	decision, err := h.checkinSvc.ProcessCheckin(c.Request.Context(), userID, services.CheckinInput{
		Yesterday: req.Yesterday,
		Today:     req.Today,
		Blockers:  req.Blockers,
	})
	if err != nil {
		h.log.Error("Check-in failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "checkin_failed", err)
		return
	}
	RespondOK(c, decision)
}
