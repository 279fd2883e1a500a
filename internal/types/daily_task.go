package types

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeReading TaskType = "reading"
	TaskTypeCoding  TaskType = "coding"
	TaskTypeReview  TaskType = "review"
	TaskTypeQuiz    TaskType = "quiz"
)

// NormalizeTaskType maps unrecognized task types to reading.
func NormalizeTaskType(raw string) TaskType {
	switch TaskType(raw) {
	case TaskTypeReading, TaskTypeCoding, TaskTypeReview, TaskTypeQuiz:
		return TaskType(raw)
	default:
		return TaskTypeReading
	}
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusSkipped    TaskStatus = "skipped"
)

type DailyTask struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Date       time.Time `gorm:"type:date;not null;index" json:"date"`
	Task       string    `gorm:"type:text;not null" json:"task"`
	TimeboxMin int       `gorm:"not null;default:45" json:"timebox_min"`
	TaskType   TaskType  `gorm:"size:20;not null;default:'reading'" json:"task_type"`

	Status      TaskStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (DailyTask) TableName() string { return "daily_task" }
