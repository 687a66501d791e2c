// Package importer parses uploaded fleet spreadsheets and stages their rows
// per session until the session imports them.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// PreviewRows is how many rows the upload page shows.
const PreviewRows = 10

var (
	// ErrInvalidFileFormat is returned for files that are not .csv, .xlsx or .xls.
	ErrInvalidFileFormat = errors.New("importer: please upload a CSV or Excel file")
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("importer: file has no header row")
)

// Sheet is a parsed table: a header row plus data rows. Every row has
// exactly len(Columns) cells.
type Sheet struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (s *Sheet) Len() int { return len(s.Rows) }

// Preview returns at most PreviewRows leading rows.
func (s *Sheet) Preview() [][]string {
	if len(s.Rows) <= PreviewRows {
		return s.Rows
	}
	return s.Rows[:PreviewRows]
}

// Record returns row i keyed by column name.
func (s *Sheet) Record(i int) map[string]string {
	rec := make(map[string]string, len(s.Columns))
	for j, col := range s.Columns {
		rec[col] = s.Rows[i][j]
	}
	return rec
}

// SupportedFile reports whether name has an extension ParseFile accepts.
func SupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// ParseFile reads a spreadsheet, choosing the decoder by file extension.
func ParseFile(name string, r io.Reader) (*Sheet, error) {
	var (
		raw [][]string
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		raw, err = readCSV(r)
	case ".xlsx":
		raw, err = readXLSX(r)
	case ".xls":
		raw, err = readXLS(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("importer: read %s: %w", name, err)
	}
	return newSheet(raw)
}

// newSheet takes the first non-blank row as the header, drops blank rows
// and pads or trims every row to the header width.
func newSheet(raw [][]string) (*Sheet, error) {
	var s *Sheet
	for _, row := range raw {
		if blank(row) {
			continue
		}
		if s == nil {
			s = &Sheet{Columns: headerNames(row)}
			continue
		}
		cells := make([]string, len(s.Columns))
		copy(cells, row)
		s.Rows = append(s.Rows, cells)
	}
	if s == nil {
		return nil, ErrEmptyFile
	}
	return s, nil
}

// headerNames trims header cells and names empty ones "Unnamed: N".
func headerNames(row []string) []string {
	cols := make([]string, len(row))
	for i, c := range row {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		cols[i] = c
	}
	return cols
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func readXLS(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
