package types

import (
	"time"

	"github.com/google/uuid"
)

// ConceptMastery tracks per-concept counters for the retention score and
// spaced repetition. TimesSeen >= TimesCorrect always holds.
type ConceptMastery struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_mastery_user_concept,unique" json:"user_id"`

	Concept      string `gorm:"size:255;not null;index:idx_concept_mastery_user_concept,unique" json:"concept"`
	TimesSeen    int    `gorm:"not null;default:0" json:"times_seen"`
	TimesCorrect int    `gorm:"not null;default:0" json:"times_correct"`
	TimesWrong   int    `gorm:"not null;default:0" json:"times_wrong"`

	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ConceptMastery) TableName() string { return "concept_mastery" }
