package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/clients/openai"
	"github.com/learnloop/learnloop-backend/internal/logger"
	"github.com/learnloop/learnloop-backend/internal/observability"
	"github.com/learnloop/learnloop-backend/internal/repos"
	"github.com/learnloop/learnloop-backend/internal/types"
)

const quizGenerationPrompt = `Generate a quiz for testing knowledge on: %s

User's current level: %s
Recent concepts covered: %s

Create %d questions that test understanding, not just memorization.
Mix question types: some multiple choice, some short answer.`

const judgePrompt = `You are evaluating a student's answer to a quiz question.

Question: %s
Correct Answer: %s
Student's Answer: %s
Concept: %s

Evaluate the student's answer and provide:
1. Score (0.0 to 1.0)
2. Brief feedback explaining what was correct/incorrect
3. Whether the concept is understood`

var quizSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"topic": map[string]any{"type": "string"},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question":       map[string]any{"type": "string"},
					"type":           map[string]any{"type": "string"},
					"options":        map[string]any{"type": "object"},
					"correct_answer": map[string]any{"type": "string"},
					"concept":        map[string]any{"type": "string"},
				},
				"required": []string{"question", "type", "correct_answer", "concept"},
			},
		},
	},
	"required": []string{"topic", "questions"},
}

var judgeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score":              map[string]any{"type": "number"},
		"feedback":           map[string]any{"type": "string"},
		"concept_understood": map[string]any{"type": "boolean"},
	},
	"required": []string{"score", "feedback"},
}

// QuizView is the generated quiz as served to the user, answers withheld.
type QuizView struct {
	QuizID    uuid.UUID          `json:"quiz_id"`
	Topic     string             `json:"topic"`
	Questions []QuizQuestionView `json:"questions"`
}

type QuizQuestionView struct {
	ID       uuid.UUID          `json:"id"`
	Question string             `json:"question"`
	Type     types.QuestionType `json:"type"`
	Options  map[string]string  `json:"options,omitempty"`
	Concept  string             `json:"concept,omitempty"`
}

type QuizAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
}

type QuizResult struct {
	QuizID  uuid.UUID            `json:"quiz_id"`
	Score   float64              `json:"score"`
	Results []QuizQuestionResult `json:"results"`
}

type QuizQuestionResult struct {
	QuestionID        uuid.UUID `json:"question_id"`
	Score             float64   `json:"score"`
	Feedback          string    `json:"feedback"`
	CorrectAnswer     string    `json:"correct_answer"`
	ConceptUnderstood bool      `json:"concept_understood"`
}

type QuizService interface {
	GenerateQuiz(ctx context.Context, userID uuid.UUID, topic string, numQuestions int, level string) (QuizView, error)
	SubmitQuiz(ctx context.Context, quizID uuid.UUID, answers []QuizAnswer) (QuizResult, error)
}

type quizService struct {
	log            *logger.Logger
	tracing        *observability.Tracing
	generator      openai.Generator
	genTimeout     time.Duration
	quizRepo       repos.QuizRepo
	masteryRepo    repos.ConceptMasteryRepo
	commitmentRepo repos.CommitmentRepo
}

func NewQuizService(
	baseLog *logger.Logger,
	tracing *observability.Tracing,
	generator openai.Generator,
	genTimeout time.Duration,
	quizRepo repos.QuizRepo,
	masteryRepo repos.ConceptMasteryRepo,
	commitmentRepo repos.CommitmentRepo,
) QuizService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &quizService{
		log:            baseLog.With("service", "QuizService"),
		tracing:        tracing,
		generator:      generator,
		genTimeout:     genTimeout,
		quizRepo:       quizRepo,
		masteryRepo:    masteryRepo,
		commitmentRepo: commitmentRepo,
	}
}

type generatedQuiz struct {
	Topic     string `json:"topic"`
	Questions []struct {
		Question      string            `json:"question"`
		Type          string            `json:"type"`
		Options       map[string]string `json:"options"`
		CorrectAnswer string            `json:"correct_answer"`
		Concept       string            `json:"concept"`
	} `json:"questions"`
}

// GenerateQuiz creates a quiz targeting the user's weakest concepts.
func (s *quizService) GenerateQuiz(ctx context.Context, userID uuid.UUID, topic string, numQuestions int, level string) (QuizView, error) {
	ctx, span := s.tracing.Start(ctx, "quiz.generate")
	defer span.End()

	if numQuestions <= 0 {
		numQuestions = 5
	}
	if level == "" {
		level = "intermediate"
	}

	s.log.Info("Generating quiz", "user_id", userID, "topic", topic, "num_questions", numQuestions)

	concepts := s.weakConcepts(ctx, userID)
	week := s.currentWeek(ctx, userID)

	generated := s.generate(ctx, topic, level, concepts, numQuestions)

	now := time.Now()
	quiz := &types.Quiz{
		ID:        uuid.New(),
		UserID:    userID,
		Week:      week,
		Topic:     topic,
		Completed: false,
		CreatedAt: now,
	}
	if _, err := s.quizRepo.CreateQuiz(ctx, nil, quiz); err != nil {
		return QuizView{}, err
	}

	questions := make([]*types.QuizQuestion, 0, len(generated.Questions))
	for _, q := range generated.Questions {
		qType := types.QuestionTypeShortAnswer
		if q.Type == "mcq" {
			qType = types.QuestionTypeMCQ
		}

		var options []byte
		if len(q.Options) > 0 {
			options, _ = json.Marshal(q.Options)
		}

		questions = append(questions, &types.QuizQuestion{
			ID:            uuid.New(),
			QuizID:        quiz.ID,
			Question:      q.Question,
			QuestionType:  qType,
			Options:       options,
			CorrectAnswer: q.CorrectAnswer,
			Concept:       q.Concept,
			CreatedAt:     now,
		})
	}
	if _, err := s.quizRepo.CreateQuestions(ctx, nil, questions); err != nil {
		return QuizView{}, err
	}

	view := QuizView{QuizID: quiz.ID, Topic: topic}
	for _, q := range questions {
		var options map[string]string
		if len(q.Options) > 0 {
			_ = json.Unmarshal(q.Options, &options)
		}
		view.Questions = append(view.Questions, QuizQuestionView{
			ID:       q.ID,
			Question: q.Question,
			Type:     q.QuestionType,
			Options:  options,
			Concept:  q.Concept,
		})
	}
	return view, nil
}

type judgement struct {
	Score             float64 `json:"score"`
	Feedback          string  `json:"feedback"`
	ConceptUnderstood *bool   `json:"concept_understood"`
}

// SubmitQuiz grades the answers, records attempts, updates concept mastery,
// and marks the quiz completed with its mean score.
func (s *quizService) SubmitQuiz(ctx context.Context, quizID uuid.UUID, answers []QuizAnswer) (QuizResult, error) {
	ctx, span := s.tracing.Start(ctx, "quiz.submit")
	defer span.End()

	s.log.Info("Grading quiz", "quiz_id", quizID, "num_answers", len(answers))

	quiz, err := s.quizRepo.GetQuizWithQuestions(ctx, nil, quizID)
	if err != nil {
		return QuizResult{}, err
	}

	questionsByID := make(map[uuid.UUID]*types.QuizQuestion, len(quiz.Questions))
	for i := range quiz.Questions {
		questionsByID[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	total := 0.0
	result := QuizResult{QuizID: quizID}

	for _, answer := range answers {
		question, ok := questionsByID[answer.QuestionID]
		if !ok {
			continue
		}

		j := s.judge(ctx, question, answer.Answer)
		understood := j.Score > 0.6
		if j.ConceptUnderstood != nil {
			understood = *j.ConceptUnderstood
		}

		attempt := &types.QuizAttempt{
			ID:         uuid.New(),
			QuestionID: question.ID,
			UserAnswer: answer.Answer,
			Score:      j.Score,
			Feedback:   j.Feedback,
			CreatedAt:  time.Now(),
		}
		if _, err := s.quizRepo.CreateAttempt(ctx, nil, attempt); err != nil {
			return QuizResult{}, err
		}

		if question.Concept != "" {
			if err := s.updateMastery(ctx, quiz.UserID, question.Concept, understood); err != nil {
				s.log.Error("Concept mastery update failed", "concept", question.Concept, "error", err)
			}
		}

		total += j.Score
		result.Results = append(result.Results, QuizQuestionResult{
			QuestionID:        question.ID,
			Score:             j.Score,
			Feedback:          j.Feedback,
			CorrectAnswer:     question.CorrectAnswer,
			ConceptUnderstood: understood,
		})
	}

	avg := 0.0
	if len(answers) > 0 {
		avg = total / float64(len(answers))
	}
	if err := s.quizRepo.SetResult(ctx, nil, quizID, avg); err != nil {
		return QuizResult{}, err
	}

	result.Score = avg
	return result, nil
}

func (s *quizService) generate(ctx context.Context, topic, level, concepts string, numQuestions int) generatedQuiz {
	prompt := fmt.Sprintf(quizGenerationPrompt, topic, level, concepts, numQuestions)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, "", prompt, "quiz", quizSchema)
	if err == nil {
		var generated generatedQuiz
		if decErr := decodeInto(raw, &generated); decErr == nil && len(generated.Questions) > 0 {
			return generated
		}
	} else {
		s.log.Error("Quiz generation failed, using fallback quiz", "error", err)
	}
	return defaultQuiz(topic, numQuestions)
}

// judge grades one answer via the generator, degrading to string matching
// when the generator is unavailable: exact match 1.0, substring 0.5, else 0.
func (s *quizService) judge(ctx context.Context, question *types.QuizQuestion, userAnswer string) judgement {
	concept := question.Concept
	if concept == "" {
		concept = "general"
	}

	prompt := fmt.Sprintf(judgePrompt, question.Question, question.CorrectAnswer, userAnswer, concept)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	raw, err := s.generator.GenerateJSON(genCtx, "", prompt, "answer_judgement", judgeSchema)
	if err == nil {
		var j judgement
		if decErr := decodeInto(raw, &j); decErr == nil && j.Feedback != "" {
			return j
		}
	} else {
		s.log.Error("Answer judging failed, falling back to string match", "error", err)
	}

	score := 0.0
	got := strings.ToLower(strings.TrimSpace(userAnswer))
	want := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
	switch {
	case got == want:
		score = 1.0
	case want != "" && strings.Contains(got, want):
		score = 0.5
	}
	return judgement{Score: score, Feedback: "Answer evaluated"}
}

func (s *quizService) updateMastery(ctx context.Context, userID uuid.UUID, concept string, understood bool) error {
	mastery, err := s.masteryRepo.GetByUserAndConcept(ctx, nil, userID, concept)
	if err != nil {
		return err
	}

	now := time.Now()
	if mastery != nil {
		mastery.TimesSeen++
		if understood {
			mastery.TimesCorrect++
		} else {
			mastery.TimesWrong++
		}
		mastery.LastSeenAt = &now
		mastery.UpdatedAt = now
		return s.masteryRepo.Update(ctx, nil, mastery)
	}

	correct, wrong := 0, 1
	if understood {
		correct, wrong = 1, 0
	}
	mastery = &types.ConceptMastery{
		ID:           uuid.New(),
		UserID:       userID,
		Concept:      concept,
		TimesSeen:    1,
		TimesCorrect: correct,
		TimesWrong:   wrong,
		LastSeenAt:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err = s.masteryRepo.Create(ctx, nil, mastery)
	return err
}

// weakConcepts names the user's three weakest concepts by accuracy.
func (s *quizService) weakConcepts(ctx context.Context, userID uuid.UUID) string {
	all, err := s.masteryRepo.ListByUser(ctx, nil, userID)
	if err != nil || len(all) == 0 {
		return "general concepts"
	}

	seen := make([]*types.ConceptMastery, 0, len(all))
	for _, c := range all {
		if c.TimesSeen > 0 {
			seen = append(seen, c)
		}
	}
	if len(seen) == 0 {
		return "general concepts"
	}

	sort.Slice(seen, func(i, j int) bool {
		ri := float64(seen[i].TimesCorrect) / float64(seen[i].TimesSeen)
		rj := float64(seen[j].TimesCorrect) / float64(seen[j].TimesSeen)
		return ri < rj
	})

	names := make([]string, 0, 3)
	for i, c := range seen {
		if i == 3 {
			break
		}
		names = append(names, c.Concept)
	}
	return strings.Join(names, ", ")
}

func (s *quizService) currentWeek(ctx context.Context, userID uuid.UUID) int {
	commitment, err := s.commitmentRepo.GetActiveByUser(ctx, nil, userID)
	if err != nil || commitment == nil {
		return 1
	}
	return maxInt(1, daysBetween(dateOnly(commitment.CreatedAt), dateOnly(time.Now()))/7+1)
}

func defaultQuiz(topic string, numQuestions int) generatedQuiz {
	n := numQuestions
	if n > 3 {
		n = 3
	}
	out := generatedQuiz{Topic: topic}
	for i := 0; i < n; i++ {
		out.Questions = append(out.Questions, struct {
			Question      string            `json:"question"`
			Type          string            `json:"type"`
			Options       map[string]string `json:"options"`
			CorrectAnswer string            `json:"correct_answer"`
			Concept       string            `json:"concept"`
		}{
			Question:      fmt.Sprintf("Explain the key concept of %s", topic),
			Type:          "short_answer",
			CorrectAnswer: "Understanding of core concepts",
			Concept:       topic,
		})
	}
	return out
}
