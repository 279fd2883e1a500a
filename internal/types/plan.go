package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Plan is a weekly learning plan. WeekStart is always the Monday of the plan's
// week. Versions are monotonically increasing per user; at most one plan per
// user is active at a time.
type Plan struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	WeekStart time.Time `gorm:"type:date;not null;index" json:"week_start"`
	Version   int       `gorm:"not null;default:1" json:"version"`

	// Payload is the generated plan document as returned by the planner,
	// kept verbatim for audit and replay.
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Tasks []DailyTask `gorm:"foreignKey:PlanID" json:"tasks,omitempty"`
}

func (Plan) TableName() string { return "plan" }
