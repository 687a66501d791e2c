// Package train provides record-store operations on trains, including the
// role-checked single-field editor.
package train

import (
	"errors"
	"fmt"

	"github.com/zulandar/induction/internal/db"
	"github.com/zulandar/induction/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when no train has the requested id or number.
	ErrNotFound = errors.New("train: not found")
	// ErrDuplicateTrainNumber is returned when train_number is already taken.
	ErrDuplicateTrainNumber = errors.New("train: train number already exists")
)

// storeOrder is rank then train number. Column names are quoted because
// RANK is reserved in MySQL 8.
var storeOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "rank"}},
	{Column: clause.Column{Name: "train_number"}},
}}

// CreateOpts holds parameters for creating a new train.
type CreateOpts struct {
	TrainNumber    string
	TrainName      string
	Status         string // defaults to ok
	Rank           int    // 0 means the store default of 99
	CurrentMileage int
	StablingBay    string
	CleaningStatus string
	StatusNotes    string
}

// Create inserts a new train.
func Create(gormDB *gorm.DB, opts CreateOpts) (*models.Train, error) {
	if opts.TrainNumber == "" {
		return nil, fmt.Errorf("train: train number is required")
	}
	if opts.TrainName == "" {
		return nil, fmt.Errorf("train: train name is required")
	}
	if opts.Status == "" {
		opts.Status = models.TrainStatusOK
	}
	if !models.IsTrainStatus(opts.Status) {
		return nil, fmt.Errorf("train: invalid status %q", opts.Status)
	}

	t := models.Train{
		TrainNumber:    opts.TrainNumber,
		TrainName:      opts.TrainName,
		Status:         opts.Status,
		Rank:           opts.Rank,
		CurrentMileage: opts.CurrentMileage,
		StablingBay:    opts.StablingBay,
		CleaningStatus: opts.CleaningStatus,
		StatusNotes:    opts.StatusNotes,
	}
	if err := gormDB.Create(&t).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTrainNumber, opts.TrainNumber)
		}
		return nil, fmt.Errorf("train: create %s: %w", opts.TrainNumber, err)
	}
	return &t, nil
}

// Get retrieves a train by id.
func Get(gormDB *gorm.DB, id uint) (*models.Train, error) {
	var t models.Train
	if err := gormDB.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("train: get %d: %w", id, err)
	}
	return &t, nil
}

// GetByNumber retrieves a train by its train number.
func GetByNumber(gormDB *gorm.DB, number string) (*models.Train, error) {
	var t models.Train
	if err := gormDB.Where("train_number = ?", number).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, number)
		}
		return nil, fmt.Errorf("train: get %s: %w", number, err)
	}
	return &t, nil
}

// GetDetail retrieves a train with its certificates and job cards preloaded.
func GetDetail(gormDB *gorm.DB, id uint) (*models.Train, error) {
	var t models.Train
	err := gormDB.
		Preload("Certificates", func(q *gorm.DB) *gorm.DB { return q.Order("expiry_date ASC, id ASC") }).
		Preload("JobCards", func(q *gorm.DB) *gorm.DB { return q.Order("created_at DESC, id DESC") }).
		Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("train: get detail %d: %w", id, err)
	}
	return &t, nil
}

// List returns every train in store order (rank, then train number).
func List(gormDB *gorm.DB) ([]models.Train, error) {
	var trains []models.Train
	if err := gormDB.Order(storeOrder).Find(&trains).Error; err != nil {
		return nil, fmt.Errorf("train: list: %w", err)
	}
	return trains, nil
}

// Count returns the number of trains in the store.
func Count(gormDB *gorm.DB) (int64, error) {
	var n int64
	if err := gormDB.Model(&models.Train{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("train: count: %w", err)
	}
	return n, nil
}

// Delete removes a train together with its certificates and job cards.
func Delete(gormDB *gorm.DB, id uint) error {
	return gormDB.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, id); err != nil {
			return err
		}
		if err := tx.Where("train_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
			return fmt.Errorf("train: delete certificates of %d: %w", id, err)
		}
		if err := tx.Where("train_id = ?", id).Delete(&models.JobCard{}).Error; err != nil {
			return fmt.Errorf("train: delete job cards of %d: %w", id, err)
		}
		if err := tx.Delete(&models.Train{}, id).Error; err != nil {
			return fmt.Errorf("train: delete %d: %w", id, err)
		}
		return nil
	})
}
