package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/middleware"
	"github.com/learnloop/learnloop-backend/internal/services"
)

type QuizHandler struct {
	log     *logger.Logger
	quizSvc services.QuizService
}

func NewQuizHandler(log *logger.Logger, quizSvc services.QuizService) *QuizHandler {
	return &QuizHandler{
		log:     log.With("handler", "QuizHandler"),
		quizSvc: quizSvc,
	}
}

type generateQuizRequest struct {
	Topic        string `json:"topic" binding:"required"`
	NumQuestions int    `json:"num_questions"`
	Level        string `json:"level"`
}

// POST /api/v1/quiz/generate
func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	var req generateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	quiz, err := h.quizSvc.GenerateQuiz(c.Request.Context(), userID, req.Topic, req.NumQuestions, req.Level)
	if err != nil {
		h.log.Error("Quiz generation failed", "user_id", userID, "error", err)
		RespondError(c, http.StatusInternalServerError, "quiz_generation_failed", err)
		return
	}
	RespondOK(c, quiz)
}

type submitQuizRequest struct {
	Answers []services.QuizAnswer `json:"answers" binding:"required,min=1"`
}

// POST /api/v1/quiz/:id/submit
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		RespondError(c, http.StatusUnauthorized, "missing_user", errors.New("missing user identity"))
		return
	}

	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_quiz_id", err)
		return
	}

	var req submitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.quizSvc.SubmitQuiz(c.Request.Context(), quizID, req.Answers)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondError(c, http.StatusNotFound, "quiz_not_found", errors.New("quiz not found"))
			return
		}
		h.log.Error("Quiz submission failed", "quiz_id", quizID, "error", err)
		RespondError(c, http.StatusInternalServerError, "quiz_submission_failed", err)
		return
	}
	RespondOK(c, result)
}
