package models

import "time"

// UserProfile carries the role and staff details for a login identity.
type UserProfile struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"`
	Username     string  `gorm:"size:150;uniqueIndex;not null"`
	Role         string  `gorm:"size:20;default:staff1"`
	EmployeeID   *string `gorm:"size:20;uniqueIndex"`
	Department   string  `gorm:"size:100"`
	PasswordHash string  `gorm:"size:100"`
	CreatedAt    time.Time
}
