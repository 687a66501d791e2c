package models

import (
	"time"

	"gorm.io/datatypes"
)

// StagedRow is one uploaded spreadsheet row held until the session imports it.
type StagedRow struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"size:36;not null;index"`
	Position  int
	FileName  string `gorm:"size:255"`
	Data      datatypes.JSON
	CreatedAt time.Time
}
