package models

import "time"

// Train statuses.
const (
	TrainStatusOK               = "ok"
	TrainStatusMinorMaintenance = "minor_maintenance"
	TrainStatusCannotSchedule   = "cannot_schedule"
)

// TrainStatuses lists the valid train statuses in display order.
var TrainStatuses = []string{TrainStatusOK, TrainStatusMinorMaintenance, TrainStatusCannotSchedule}

// trainStatusLabels holds the human-readable text for each status.
var trainStatusLabels = map[string]string{
	TrainStatusOK:               "OK - Ready for Service",
	TrainStatusMinorMaintenance: "Minor Maintenance Required",
	TrainStatusCannotSchedule:   "Cannot Schedule - Critical Issues",
}

// IsTrainStatus reports whether s is a declared train status.
func IsTrainStatus(s string) bool {
	_, ok := trainStatusLabels[s]
	return ok
}

// Train is a fleet unit tracked for induction planning.
type Train struct {
	ID               uint       `gorm:"primaryKey;autoIncrement"`
	TrainNumber      string     `gorm:"size:20;uniqueIndex;not null"`
	TrainName        string     `gorm:"size:100;not null"`
	Status           string     `gorm:"size:20;default:ok;index"`
	Rank             int        `gorm:"default:99;index"`
	CurrentMileage   int        `gorm:"default:0"`
	LastServiceDate  *time.Time `gorm:"type:date"`
	StatusNotes      string     `gorm:"type:text"`
	StablingBay      string     `gorm:"size:50"`
	CleaningStatus   string     `gorm:"size:100;default:Clean"`
	MaintenanceNotes string     `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Certificates []Certificate `gorm:"foreignKey:TrainID;constraint:OnDelete:CASCADE"`
	JobCards     []JobCard     `gorm:"foreignKey:TrainID;constraint:OnDelete:CASCADE"`
}

// ServiceDate returns LastServiceDate as YYYY-MM-DD, or "" when unset.
func (t Train) ServiceDate() string {
	if t.LastServiceDate == nil {
		return ""
	}
	return t.LastServiceDate.Format(time.DateOnly)
}

// StatusLabel returns the display text for the train's status.
func (t Train) StatusLabel() string {
	if label, ok := trainStatusLabels[t.Status]; ok {
		return label
	}
	return t.Status
}

// StatusColor maps the status to a CSS badge class.
func (t Train) StatusColor() string {
	switch t.Status {
	case TrainStatusOK:
		return "success"
	case TrainStatusMinorMaintenance:
		return "warning"
	case TrainStatusCannotSchedule:
		return "danger"
	default:
		return "secondary"
	}
}
