package types

import (
	"time"

	"github.com/google/uuid"
)

// PremortemRisk belongs to exactly one commitment. Risks are fully replaced
// on each premortem submission; priority 1 is the highest.
type PremortemRisk struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommitmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"commitment_id"`

	Risk       string `gorm:"type:text;not null" json:"risk"`
	Mitigation string `gorm:"type:text;not null" json:"mitigation"`
	Priority   int    `gorm:"not null;default:1" json:"priority"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PremortemRisk) TableName() string { return "premortem_risk" }
