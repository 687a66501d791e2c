package models

import "time"

// Job card statuses.
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job card priorities.
const (
	JobPriorityLow      = "low"
	JobPriorityMedium   = "medium"
	JobPriorityHigh     = "high"
	JobPriorityCritical = "critical"
)

// JobCard is a maintenance work order raised against a train.
type JobCard struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	TrainID     uint   `gorm:"not null;index"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:20;default:pending;index"`
	Priority    string `gorm:"size:10;default:medium"`
	CreatedAt   time.Time
	CompletedAt *time.Time
}
