package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AgentRun is the audit record of one decision-engine invocation.
type AgentRun struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Trigger  string         `gorm:"size:50;not null" json:"trigger"`
	Decision datatypes.JSON `gorm:"type:jsonb" json:"decision,omitempty"`

	QualityScore float64        `gorm:"not null;default:1" json:"quality_score"`
	QualityFlags datatypes.JSON `gorm:"type:jsonb" json:"quality_flags,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (AgentRun) TableName() string { return "agent_run" }
