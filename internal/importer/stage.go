package importer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/induction/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNothingStaged is returned by Commit when the session has no staged rows.
var ErrNothingStaged = errors.New("importer: no data to import")

// Stage replaces the session's staged rows with the sheet's rows.
func Stage(db *gorm.DB, sessionID, fileName string, s *Sheet) error {
	if sessionID == "" {
		return fmt.Errorf("importer: session id is required")
	}
	rows := make([]models.StagedRow, 0, s.Len())
	for i := range s.Rows {
		data, err := json.Marshal(s.Record(i))
		if err != nil {
			return fmt.Errorf("importer: encode row %d: %w", i, err)
		}
		rows = append(rows, models.StagedRow{
			SessionID: sessionID,
			Position:  i,
			FileName:  fileName,
			Data:      datatypes.JSON(data),
		})
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.StagedRow{}).Error; err != nil {
			return fmt.Errorf("importer: clear session %s: %w", sessionID, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("importer: stage %d rows: %w", len(rows), err)
		}
		return nil
	})
}

// Staged returns the number of rows staged for the session.
func Staged(db *gorm.DB, sessionID string) (int64, error) {
	var n int64
	if err := db.Model(&models.StagedRow{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("importer: count staged: %w", err)
	}
	return n, nil
}

// Commit consumes the session's staged rows and returns how many there were.
func Commit(db *gorm.DB, sessionID string) (int, error) {
	var n int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("session_id = ?", sessionID).Delete(&models.StagedRow{})
		if res.Error != nil {
			return fmt.Errorf("importer: commit session %s: %w", sessionID, res.Error)
		}
		n = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNothingStaged
	}
	return int(n), nil
}

// Clear drops any rows staged for the session.
func Clear(db *gorm.DB, sessionID string) error {
	if err := db.Where("session_id = ?", sessionID).Delete(&models.StagedRow{}).Error; err != nil {
		return fmt.Errorf("importer: clear session %s: %w", sessionID, err)
	}
	return nil
}
