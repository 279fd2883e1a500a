package types

import (
	"time"

	"github.com/google/uuid"
)

// RuleType is an open string set. The engine only emits the constants below
// today; rules learned through other channels keep whatever type they carry.
type RuleType string

const (
	RuleTypeTaskSkip       RuleType = "task_skip"
	RuleTypeTimeConstraint RuleType = "time_constraint"
)

// MemoryRule is a learned behavioral pattern. Confidence starts at 0.5 and is
// reinforced by +0.1 per repeated observation, capped at 1.0.
type MemoryRule struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	RuleType   RuleType `gorm:"size:50;not null" json:"rule_type"`
	RuleValue  string   `gorm:"type:text;not null" json:"rule_value"`
	Confidence float64  `gorm:"not null;default:0.5" json:"confidence"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (MemoryRule) TableName() string { return "memory_rule" }
