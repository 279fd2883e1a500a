package types

import (
	"time"

	"github.com/google/uuid"
)

// Checkin is a daily self-report plus the engine's guidance at the time.
// Multiple check-ins on the same day accumulate; none are overwritten.
type Checkin struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Date      time.Time `gorm:"type:date;not null;index" json:"date"`
	Yesterday string    `gorm:"type:text" json:"yesterday,omitempty"`
	Today     string    `gorm:"type:text" json:"today,omitempty"`
	Blockers  string    `gorm:"type:text" json:"blockers,omitempty"`

	NextTask     string `gorm:"type:text" json:"next_task,omitempty"`
	FallbackTask string `gorm:"type:text" json:"fallback_task,omitempty"`
	Advice       string `gorm:"type:text" json:"advice,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Checkin) TableName() string { return "checkin" }
