package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CodingChallenge struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Difficulty  string `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	Concept     string `gorm:"size:255" json:"concept,omitempty"`

	// StarterCode and TestCases come straight from the generator.
	StarterCode string         `gorm:"type:text" json:"starter_code,omitempty"`
	TestCases   datatypes.JSON `gorm:"type:jsonb" json:"test_cases,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CodingChallenge) TableName() string { return "coding_challenge" }

type CodeSubmission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChallengeID uuid.UUID `gorm:"type:uuid;not null;index" json:"challenge_id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Code     string   `gorm:"type:text;not null" json:"code"`
	Passed   bool     `gorm:"not null;default:false" json:"passed"`
	Score    *float64 `json:"score,omitempty"`
	Feedback string   `gorm:"type:text" json:"feedback,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CodeSubmission) TableName() string { return "code_submission" }
