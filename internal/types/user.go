package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	FullName string    `gorm:"size:255" json:"full_name,omitempty"`

	IsActive bool       `gorm:"not null;default:true" json:"is_active"`
	Status   UserStatus `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
