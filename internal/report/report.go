// Package report renders the fleet as a downloadable CSV.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/train"
	"gorm.io/gorm"
)

// Columns is the report header, in order.
var Columns = []string{
	"rank", "train_number", "train_name", "status",
	"current_mileage", "cleaning_status", "stabling_bay", "status_notes",
}

// ErrNoData is returned when there are no trains to report.
var ErrNoData = errors.New("report: no train data to report")

// ReportError wraps any failure while building the report.
type ReportError struct {
	Err error
}

func (e *ReportError) Error() string { return "report: generate: " + e.Err.Error() }

func (e *ReportError) Unwrap() error { return e.Err }

// Filename returns the attachment name for a report generated at t.
func Filename(t time.Time) string {
	return "metro_trains_report_" + t.Format("20060102") + ".csv"
}

// WriteCSV writes the header and one row per train.
func WriteCSV(w io.Writer, trains []models.Train) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, t := range trains {
		if err := cw.Write([]string{
			strconv.Itoa(t.Rank),
			t.TrainNumber,
			t.TrainName,
			t.Status,
			strconv.Itoa(t.CurrentMileage),
			t.CleaningStatus,
			t.StablingBay,
			t.StatusNotes,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Generate renders every train in store order.
func Generate(db *gorm.DB) ([]byte, error) {
	trains, err := train.List(db)
	if err != nil {
		return nil, &ReportError{Err: err}
	}
	if len(trains) == 0 {
		return nil, ErrNoData
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, trains); err != nil {
		return nil, &ReportError{Err: fmt.Errorf("write csv: %w", err)}
	}
	return buf.Bytes(), nil
}
