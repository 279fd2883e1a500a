package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type PlanHandler struct {
	log     *logger.Logger
	planSvc services.PlanService
}

func NewPlanHandler(log *logger.Logger, planSvc services.PlanService) *PlanHandler {
	return &PlanHandler{
		log:     log.With("handler", "PlanHandler"),
		planSvc: planSvc,
	}
}

// POST /api/v1/plan/weekly?force=true
// Get or generate this week's plan.
func (h *PlanHandler) GenerateWeeklyPlan(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))

	decision, err := h.planSvc.GetOrCreateWeeklyPlan(c.Request.Context(), userID, force)
	if err != nil {
		h.log.Error("Weekly plan failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "plan_failed", err)
		return
	}
	RespondOK(c, decision)
}

// GET /api/v1/plan/current
func (h *PlanHandler) GetCurrentPlan(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	plan, err := h.planSvc.CurrentPlan(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "plan_lookup_failed", err)
		return
	}
	if plan == nil {
		RespondError(c, http.StatusNotFound, "no_plan", errors.New("no active plan"))
		return
	}
	RespondOK(c, plan)
}

// GET /api/v1/tasks/today
func (h *PlanHandler) GetTodayTasks(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	tasks, err := h.planSvc.GetTodayTasks(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "tasks_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"tasks": tasks})
}

// PUT /api/v1/tasks/:id/complete
func (h *PlanHandler) CompleteTask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return
	}

	task, err := h.planSvc.CompleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "task_not_found", errors.New("task not found"))
			return
		}
		h.log.Error("Task completion failed", "task_id", taskID, "error", err)
		RespondError(c, http.StatusInternalServerError, "task_completion_failed", err)
		return
	}
	RespondOK(c, task)
}
