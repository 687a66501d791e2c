package alert

import (
	"fmt"
	"strconv"

	"github.com/zulandar/induction/internal/certificate"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
)

// Color constants for alert severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// statusSeverity returns the severity of a train entering status.
func statusSeverity(status string) string {
	switch status {
	case models.TrainStatusCannotSchedule:
		return "error"
	case models.TrainStatusMinorMaintenance:
		return "warning"
	case models.TrainStatusOK:
		return "success"
	default:
		return "info"
	}
}

// TrainStatusChange formats a train's move from oldStatus to its current
// status by the given role.
func TrainStatusChange(t *models.Train, oldStatus, username, role string) Alert {
	severity := statusSeverity(t.Status)
	fields := []Field{
		{Name: "Train", Value: t.TrainNumber, Short: true},
		{Name: "Rank", Value: strconv.Itoa(t.Rank), Short: true},
		{Name: "From", Value: oldStatus, Short: true},
		{Name: "To", Value: t.Status, Short: true},
		{Name: "Changed by", Value: fmt.Sprintf("%s (%s)", username, permission.Label(role))},
	}
	if t.StatusNotes != "" {
		fields = append(fields, Field{Name: "Notes", Value: t.StatusNotes})
	}
	return Alert{
		Title:    fmt.Sprintf("Train %s %s is now %s", t.TrainNumber, t.TrainName, t.StatusLabel()),
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// CertificateExpiry formats an expiring or expired certificate.
func CertificateExpiry(row certificate.ExpiringRow) Alert {
	var title, severity string
	switch {
	case row.DaysLeft < 0:
		title = fmt.Sprintf("Certificate %q for %s expired %d day(s) ago", row.Certificate.Name, row.TrainNumber, -row.DaysLeft)
		severity = "error"
	case row.DaysLeft == 0:
		title = fmt.Sprintf("Certificate %q for %s expires today", row.Certificate.Name, row.TrainNumber)
		severity = "error"
	default:
		title = fmt.Sprintf("Certificate %q for %s expires in %d day(s)", row.Certificate.Name, row.TrainNumber, row.DaysLeft)
		severity = "warning"
	}

	fields := []Field{{Name: "Train", Value: row.TrainNumber, Short: true}}
	if d := row.Certificate.ExpiryDate; d != nil {
		fields = append(fields, Field{Name: "Expiry", Value: d.Format("2006-01-02"), Short: true})
	}
	verified := "no"
	if row.Certificate.IsVerified {
		verified = "yes"
	}
	fields = append(fields, Field{Name: "Verified", Value: verified, Short: true})

	return Alert{
		Title:    title,
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}
