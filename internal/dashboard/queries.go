package dashboard

import (
	"fmt"
	"time"

	"github.com/zulandar/induction/internal/fleet"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
	"github.com/zulandar/induction/internal/train"
	"gorm.io/gorm"
)

// StatusCount holds the number of trains in one status.
type StatusCount struct {
	Status string
	Label  string
	Count  int
}

// RanklistResult holds the ranklist page data.
type RanklistResult struct {
	Trains  []models.Train
	Sort    string
	Search  string
	Total   int // trains in the store, before filtering
	Summary []StatusCount
}

// Ranklist loads the fleet and applies the search and sort options.
func Ranklist(db *gorm.DB, opts fleet.Options) (*RanklistResult, error) {
	all, err := train.List(db)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, t := range all {
		counts[t.Status]++
	}
	summary := make([]StatusCount, 0, len(models.TrainStatuses))
	for _, st := range models.TrainStatuses {
		summary = append(summary, StatusCount{
			Status: st,
			Label:  models.Train{Status: st}.StatusLabel(),
			Count:  counts[st],
		})
	}

	return &RanklistResult{
		Trains:  fleet.Query(all, opts),
		Sort:    fleet.NormalizeSort(opts.Sort),
		Search:  opts.Search,
		Total:   len(all),
		Summary: summary,
	}, nil
}

// CertificateRow holds a certificate for display.
type CertificateRow struct {
	models.Certificate
	Expired bool
}

// TrainDetail holds the train detail page data.
type TrainDetail struct {
	Train        *models.Train
	Certificates []CertificateRow
	JobCards     []models.JobCard
	RoleLabel    string
	CanEdit      []string // the role's raw permission set, possibly "*"
	FormFields   []string // train attributes the role can actually edit
	Statuses     []string
	UpdatedAgo   string
}

// GetTrainDetail returns full train detail data for the detail page.
func GetTrainDetail(db *gorm.DB, id uint, role string, now time.Time) (*TrainDetail, error) {
	t, err := train.GetDetail(db, id)
	if err != nil {
		return nil, err
	}

	certs := make([]CertificateRow, len(t.Certificates))
	for i, c := range t.Certificates {
		certs[i] = CertificateRow{Certificate: c, Expired: c.IsExpired(now)}
	}

	return &TrainDetail{
		Train:        t,
		Certificates: certs,
		JobCards:     t.JobCards,
		RoleLabel:    permission.Label(role),
		CanEdit:      permission.EditableFields(role),
		FormFields:   train.FieldsFor(role),
		Statuses:     models.TrainStatuses,
		UpdatedAgo:   TimeAgo(t.UpdatedAt, now),
	}, nil
}

// TimeAgo returns a short human-readable duration since t, like "5m ago".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return formatDuration(now.Sub(t)) + " ago"
}

// formatDuration formats a duration as a human-readable string like "2h 15m".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h >= 24 {
		days := h / 24
		h = h % 24
		return fmt.Sprintf("%dd %dh", days, h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
