package models

import (
	"time"

	"gorm.io/datatypes"
)

// Certificate is a compliance document attached to a train.
type Certificate struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"`
	TrainID       uint       `gorm:"not null;index"`
	Name          string     `gorm:"size:200;not null"`
	File          string     `gorm:"size:255"`
	IssueDate     *time.Time `gorm:"type:date"`
	ExpiryDate    *time.Time `gorm:"type:date;index"`
	IsVerified    bool       `gorm:"default:false"`
	ExtractedData datatypes.JSON
	CreatedAt     time.Time
}

// IsExpired reports whether the expiry date falls before the calendar day of now.
// Certificates without an expiry date never expire.
func (c Certificate) IsExpired(now time.Time) bool {
	if c.ExpiryDate == nil {
		return false
	}
	return c.ExpiryDate.Format(time.DateOnly) < now.Format(time.DateOnly)
}
