package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type IntakeHandler struct {
	log       *logger.Logger
	intakeSvc services.IntakeService
}

func NewIntakeHandler(log *logger.Logger, intakeSvc services.IntakeService) *IntakeHandler {
	return &IntakeHandler{
		log:       log.With("handler", "IntakeHandler"),
		intakeSvc: intakeSvc,
	}
}

type intakeRequest struct {
	Goal          string `json:"goal" binding:"required"`
	TargetDate    string `json:"target_date" binding:"required"`
	WeeklyHours   int    `json:"weekly_hours" binding:"required,min=1"`
	Background    string `json:"background"`
	BaselineLevel string `json:"baseline_level"`
	LearningStyle string `json:"learning_style"`
}

// POST /api/v1/intake
// Create a commitment contract and get the initial coaching decision.
func (h *IntakeHandler) CreateCommitment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	targetDate, err := time.Parse("2006-01-02", req.TargetDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_target_date", err)
		return
	}

	decision, err := h.intakeSvc.CreateCommitment(c.Request.Context(), userID, services.IntakeInput{
		Goal:          req.Goal,
		TargetDate:    targetDate,
		WeeklyHours:   req.WeeklyHours,
		Background:    req.Background,
		BaselineLevel: req.BaselineLevel,
		LearningStyle: req.LearningStyle,
	})
	if err != nil {
		h.log.Error("Intake failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "intake_failed", err)
		return
	}
	RespondOK(c, decision)
}

// GET /api/v1/commitment/current
func (h *IntakeHandler) GetCurrentCommitment(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	commitment, err := h.intakeSvc.ActiveCommitment(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "commitment_lookup_failed", err)
		return
	}
	if commitment == nil {
		RespondError(c, http.StatusNotFound, "no_commitment", errors.New("no active commitment"))
		return
	}
	RespondOK(c, commitment)
}
