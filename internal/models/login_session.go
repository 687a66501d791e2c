package models

import "time"

// LoginSession marks a signed session cookie as live. Logout deletes the
// row, after which the cookie is refused even before it expires.
type LoginSession struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:150"`
	Username  string    `gorm:"size:150;not null"`
	Role      string    `gorm:"size:20;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}
