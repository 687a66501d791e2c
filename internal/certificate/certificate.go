// Package certificate manages compliance certificates attached to trains.
package certificate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/induction/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no certificate has the requested id.
var ErrNotFound = errors.New("certificate: not found")

// CreateOpts holds parameters for attaching a certificate to a train.
type CreateOpts struct {
	TrainID       uint
	Name          string
	File          string // storage key of the uploaded document
	IssueDate     *time.Time
	ExpiryDate    *time.Time
	ExtractedData map[string]any
}

// Create attaches a new, unverified certificate to a train.
func Create(db *gorm.DB, opts CreateOpts) (*models.Certificate, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("certificate: name is required")
	}
	if opts.IssueDate != nil && opts.ExpiryDate != nil && opts.ExpiryDate.Before(*opts.IssueDate) {
		return nil, fmt.Errorf("certificate: expiry date %s is before issue date %s",
			opts.ExpiryDate.Format(time.DateOnly), opts.IssueDate.Format(time.DateOnly))
	}

	var parent models.Train
	if err := db.Select("id").Where("id = ?", opts.TrainID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("certificate: train not found: %d", opts.TrainID)
		}
		return nil, fmt.Errorf("certificate: check train %d: %w", opts.TrainID, err)
	}

	c := models.Certificate{
		TrainID:    opts.TrainID,
		Name:       opts.Name,
		File:       opts.File,
		IssueDate:  opts.IssueDate,
		ExpiryDate: opts.ExpiryDate,
	}
	if opts.ExtractedData != nil {
		data, err := json.Marshal(opts.ExtractedData)
		if err != nil {
			return nil, fmt.Errorf("certificate: marshal extracted data: %w", err)
		}
		c.ExtractedData = datatypes.JSON(data)
	}

	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("certificate: create: %w", err)
	}
	return &c, nil
}

// Get retrieves a certificate by id.
func Get(db *gorm.DB, id uint) (*models.Certificate, error) {
	var c models.Certificate
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("certificate: get %d: %w", id, err)
	}
	return &c, nil
}

// ListForTrain returns a train's certificates, soonest expiry first.
func ListForTrain(db *gorm.DB, trainID uint) ([]models.Certificate, error) {
	var certs []models.Certificate
	if err := db.Where("train_id = ?", trainID).Order("expiry_date ASC, id ASC").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("certificate: list for train %d: %w", trainID, err)
	}
	return certs, nil
}

// Verify marks a certificate as checked by staff.
func Verify(db *gorm.DB, id uint) error {
	result := db.Model(&models.Certificate{}).Where("id = ?", id).Update("is_verified", true)
	if result.Error != nil {
		return fmt.Errorf("certificate: verify %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// Delete removes a certificate record. The stored file is left to the caller.
func Delete(db *gorm.DB, id uint) error {
	result := db.Delete(&models.Certificate{}, id)
	if result.Error != nil {
		return fmt.Errorf("certificate: delete %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// ExpiringRow pairs a certificate with its train number for reporting.
type ExpiringRow struct {
	Certificate models.Certificate
	TrainNumber string
	DaysLeft    int // negative once expired
}

// Expiring returns certificates whose expiry date is on or before now+within,
// including ones already expired, ordered by expiry date.
func Expiring(db *gorm.DB, now time.Time, within time.Duration) ([]ExpiringRow, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := today.Add(within)

	var certs []models.Certificate
	if err := db.Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff).
		Order("expiry_date ASC, id ASC").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("certificate: expiring: %w", err)
	}
	if len(certs) == 0 {
		return nil, nil
	}

	trainIDs := make([]uint, 0, len(certs))
	for _, c := range certs {
		trainIDs = append(trainIDs, c.TrainID)
	}
	var trains []models.Train
	if err := db.Select("id", "train_number").Where("id IN ?", trainIDs).Find(&trains).Error; err != nil {
		return nil, fmt.Errorf("certificate: expiring trains: %w", err)
	}
	numbers := make(map[uint]string, len(trains))
	for _, t := range trains {
		numbers[t.ID] = t.TrainNumber
	}

	rows := make([]ExpiringRow, len(certs))
	for i, c := range certs {
		exp := *c.ExpiryDate
		expDay := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
		rows[i] = ExpiringRow{
			Certificate: c,
			TrainNumber: numbers[c.TrainID],
			DaysLeft:    int(expDay.Sub(today).Hours() / 24),
		}
	}
	return rows, nil
}
