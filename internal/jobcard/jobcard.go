// Package jobcard provides maintenance job card lifecycle operations.
package jobcard

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/induction/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no job card has the requested id.
var ErrNotFound = errors.New("jobcard: not found")

// CreateOpts holds parameters for raising a job card.
type CreateOpts struct {
	TrainID     uint
	Title       string
	Description string
	Priority    string // low, medium (default), high, critical
}

// ListFilters holds optional filters for listing job cards.
type ListFilters struct {
	TrainID  uint
	Status   string
	Priority string
}

// ValidTransitions maps each status to its valid next statuses.
// Completed and cancelled cards are terminal.
var ValidTransitions = map[string][]string{
	models.JobStatusPending:    {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress: {models.JobStatusCompleted, models.JobStatusCancelled},
}

var validPriorities = map[string]bool{
	models.JobPriorityLow:      true,
	models.JobPriorityMedium:   true,
	models.JobPriorityHigh:     true,
	models.JobPriorityCritical: true,
}

var validStatuses = map[string]bool{
	models.JobStatusPending:    true,
	models.JobStatusInProgress: true,
	models.JobStatusCompleted:  true,
	models.JobStatusCancelled:  true,
}

// Create raises a pending job card against a train.
func Create(db *gorm.DB, opts CreateOpts) (*models.JobCard, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("jobcard: title is required")
	}
	if opts.Priority == "" {
		opts.Priority = models.JobPriorityMedium
	}
	if !validPriorities[opts.Priority] {
		return nil, fmt.Errorf("jobcard: invalid priority %q", opts.Priority)
	}

	var parent models.Train
	if err := db.Select("id").Where("id = ?", opts.TrainID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("jobcard: train not found: %d", opts.TrainID)
		}
		return nil, fmt.Errorf("jobcard: check train %d: %w", opts.TrainID, err)
	}

	jc := models.JobCard{
		TrainID:     opts.TrainID,
		Title:       opts.Title,
		Description: opts.Description,
		Status:      models.JobStatusPending,
		Priority:    opts.Priority,
	}
	if err := db.Create(&jc).Error; err != nil {
		return nil, fmt.Errorf("jobcard: create: %w", err)
	}
	return &jc, nil
}

// Get retrieves a job card by id.
func Get(db *gorm.DB, id uint) (*models.JobCard, error) {
	var jc models.JobCard
	if err := db.Where("id = ?", id).First(&jc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("jobcard: get %d: %w", id, err)
	}
	return &jc, nil
}

// List returns job cards matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.JobCard, error) {
	q := db.Model(&models.JobCard{})
	if filters.TrainID != 0 {
		q = q.Where("train_id = ?", filters.TrainID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q = q.Where("priority = ?", filters.Priority)
	}

	var cards []models.JobCard
	if err := q.Order("created_at DESC, id DESC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("jobcard: list: %w", err)
	}
	return cards, nil
}

// ListForTrain returns a train's job cards, newest first.
func ListForTrain(db *gorm.DB, trainID uint) ([]models.JobCard, error) {
	return List(db, ListFilters{TrainID: trainID})
}

// UpdateStatus moves a job card along ValidTransitions. Entering completed
// stamps CompletedAt.
func UpdateStatus(db *gorm.DB, id uint, status string) (*models.JobCard, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("jobcard: invalid status %q", status)
	}
	jc, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(jc.Status, status) {
		return nil, fmt.Errorf("jobcard: invalid status transition from %q to %q; valid transitions: %v",
			jc.Status, status, ValidTransitions[jc.Status])
	}

	updates := map[string]interface{}{"status": status}
	if status == models.JobStatusCompleted {
		updates["completed_at"] = time.Now()
	}
	if err := db.Model(&models.JobCard{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("jobcard: update %d: %w", id, err)
	}
	return Get(db, id)
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
