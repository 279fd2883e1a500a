package types

import (
	"time"

	"github.com/google/uuid"
)

type LearningStyle string

const (
	LearningStyleReading LearningStyle = "reading"
	LearningStyleCoding  LearningStyle = "coding"
	LearningStyleMixed   LearningStyle = "mixed"
)

// ParseLearningStyle falls back to mixed for anything it does not recognize.
func ParseLearningStyle(raw string) LearningStyle {
	switch LearningStyle(raw) {
	case LearningStyleReading, LearningStyleCoding, LearningStyleMixed:
		return LearningStyle(raw)
	default:
		return LearningStyleMixed
	}
}

// Commitment is the learning commitment contract. At most one commitment is
// active per user; superseded commitments are deactivated, never deleted.
type Commitment struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Goal        string    `gorm:"type:text;not null" json:"goal"`
	TargetDate  time.Time `gorm:"type:date;not null" json:"target_date"`
	WeeklyHours int       `gorm:"not null" json:"weekly_hours"`

	Background    string        `gorm:"size:50" json:"background,omitempty"`
	BaselineLevel string        `gorm:"size:50" json:"baseline_level,omitempty"`
	LearningStyle LearningStyle `gorm:"size:20;not null;default:'mixed'" json:"learning_style"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Commitment) TableName() string { return "commitment" }
