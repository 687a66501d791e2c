package db

import (
	"fmt"
	"time"

	"github.com/zulandar/induction/internal/config"
	"github.com/zulandar/induction/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Train{},
		&models.Certificate{},
		&models.JobCard{},
		&models.UserProfile{},
		&models.StagedRow{},
		&models.LoginSession{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedTrains upserts Train rows from configuration, keyed on train_number.
func SeedTrains(db *gorm.DB, seeds []config.TrainSeed) error {
	for _, s := range seeds {
		t := models.Train{
			TrainNumber:    s.TrainNumber,
			TrainName:      s.TrainName,
			Status:         s.Status,
			Rank:           s.Rank,
			CurrentMileage: s.CurrentMileage,
			StatusNotes:    s.StatusNotes,
			StablingBay:    s.StablingBay,
			CleaningStatus: s.CleaningStatus,
		}
		if s.LastServiceDate != "" {
			d, err := time.Parse(time.DateOnly, s.LastServiceDate)
			if err != nil {
				return fmt.Errorf("db: seed train %q: last_service_date: %w", s.TrainNumber, err)
			}
			t.LastServiceDate = &d
		}

		result := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "train_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"train_name", "status", "rank", "current_mileage", "last_service_date",
				"status_notes", "stabling_bay", "cleaning_status",
			}),
		}).Create(&t)
		if result.Error != nil {
			return fmt.Errorf("db: seed train %q: %w", s.TrainNumber, result.Error)
		}
	}
	return nil
}
