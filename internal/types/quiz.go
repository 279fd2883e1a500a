package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeShortAnswer QuestionType = "short_answer"
	QuestionTypeCoding      QuestionType = "coding"
)

// Quiz is a generated evaluation. Score stays nil until the quiz is graded;
// only completed quizzes with a score feed the knowledge signal.
type Quiz struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Week      int      `gorm:"not null;default:1" json:"week"`
	Topic     string   `gorm:"size:255;not null" json:"topic"`
	Score     *float64 `json:"score,omitempty"`
	Completed bool     `gorm:"not null;default:false;index" json:"completed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }

type QuizQuestion struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`

	Question     string       `gorm:"type:text;not null" json:"question"`
	QuestionType QuestionType `gorm:"size:30;not null;default:'mcq'" json:"question_type"`

	// Options is the choice map for mcq questions, null otherwise.
	Options       datatypes.JSON `gorm:"type:jsonb" json:"options,omitempty"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"-"`
	Concept       string         `gorm:"size:255" json:"concept,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

// QuizAttempt records one graded answer to one question.
type QuizAttempt struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`

	UserAnswer string  `gorm:"type:text" json:"user_answer"`
	Score      float64 `gorm:"not null;default:0" json:"score"`
	Feedback   string  `gorm:"type:text" json:"feedback,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }
