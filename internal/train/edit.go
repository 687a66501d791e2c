package train

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/induction/internal/db"
	"github.com/zulandar/induction/internal/models"
	"github.com/zulandar/induction/internal/permission"
	"gorm.io/gorm"
)

var (
	// ErrPermissionDenied is returned when the role may not write the field.
	ErrPermissionDenied = errors.New("train: permission denied")
	// ErrUnknownField is returned for names that are not train attributes.
	ErrUnknownField = errors.New("train: unknown field")
	// ErrInvalidValue is returned when a value cannot be stored in the field.
	ErrInvalidValue = errors.New("train: invalid value")
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindInt
	kindDate
	kindStatus
)

// fieldSpec describes a writable train attribute.
type fieldSpec struct {
	column string
	kind   fieldKind
}

// editableFields are the train attributes the editor accepts, keyed by the
// name used in edit requests.
var editableFields = map[string]fieldSpec{
	"train_number":         {"train_number", kindText},
	"train_name":           {"train_name", kindText},
	"status":               {"status", kindStatus},
	"rank":                 {"rank", kindInt},
	"current_mileage":      {"current_mileage", kindInt},
	"last_service_date":    {"last_service_date", kindDate},
	"status_notes":         {"status_notes", kindText},
	"stabling_bay":         {"stabling_bay", kindText},
	"current_stabling_bay": {"stabling_bay", kindText},
	"cleaning_status":      {"cleaning_status", kindText},
	"maintenance_notes":    {"maintenance_notes", kindText},
}

// fieldOrder lists the canonical attribute names for edit forms; aliases
// are left out.
var fieldOrder = []string{
	"train_number", "train_name", "status", "rank", "current_mileage",
	"last_service_date", "status_notes", "stabling_bay", "cleaning_status",
	"maintenance_notes",
}

// Fields returns the canonical editable attribute names in form order.
func Fields() []string {
	return append([]string{}, fieldOrder...)
}

// FieldsFor returns the attributes role may edit, in form order.
func FieldsFor(role string) []string {
	var out []string
	for _, f := range fieldOrder {
		if permission.CanEdit(role, f) {
			out = append(out, f)
		}
	}
	return out
}

// IsField reports whether name is a recognised train attribute.
func IsField(name string) bool {
	_, ok := editableFields[name]
	return ok
}

// EditResult describes an applied edit.
type EditResult struct {
	Train     *models.Train
	Field     string
	OldStatus string // status before the edit, for change notifications
}

// StatusChanged reports whether the edit moved the train to a new status.
func (r *EditResult) StatusChanged() bool {
	return r.Train != nil && r.Train.Status != r.OldStatus
}

// EditField writes value into one attribute of a train on behalf of role.
//
// The permission check runs before anything else, so a denied caller learns
// nothing about which fields or trains exist. On any error the train is left
// unchanged.
func EditField(gormDB *gorm.DB, role string, id uint, field, value string) (*EditResult, error) {
	if !permission.CanEdit(role, field) {
		return nil, fmt.Errorf("%w: %s cannot edit %s", ErrPermissionDenied, role, field)
	}
	spec, ok := editableFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var result *EditResult
	err := gormDB.Transaction(func(tx *gorm.DB) error {
		t, err := Get(tx, id)
		if err != nil {
			return err
		}
		oldStatus := t.Status

		stored, err := convert(spec.kind, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}

		if err := tx.Model(t).Update(spec.column, stored).Error; err != nil {
			if field == "train_number" && db.IsDuplicateKey(err) {
				return fmt.Errorf("%w: %s", ErrDuplicateTrainNumber, value)
			}
			return fmt.Errorf("train: update %s of %d: %w", field, id, err)
		}

		updated, err := Get(tx, id)
		if err != nil {
			return err
		}
		result = &EditResult{Train: updated, Field: field, OldStatus: oldStatus}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// convert turns the submitted string into the column's stored value.
func convert(kind fieldKind, value string) (interface{}, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", value)
		}
		return n, nil
	case kindDate:
		v := strings.TrimSpace(value)
		if v == "" {
			return nil, nil
		}
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return nil, fmt.Errorf("%q is not a YYYY-MM-DD date", value)
		}
		return d, nil
	case kindStatus:
		if !models.IsTrainStatus(value) {
			return nil, fmt.Errorf("%q is not one of %s", value, strings.Join(models.TrainStatuses, ", "))
		}
		return value, nil
	default:
		return value, nil
	}
}
