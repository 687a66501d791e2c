// Package permission holds the static role → editable-field table.
package permission

import "strings"

// Roles.
const (
	RoleAdmin             = "admin"
	RoleTrainOperator     = "train_operator"
	RoleMetroOfficer      = "metro_officer"
	RoleCleaner           = "cleaner"
	RoleMaintenanceWorker = "maintenance_worker"
	RoleStaff1            = "staff1"
	RoleStaff2            = "staff2"
)

// Wildcard grants every field.
const Wildcard = "*"

// table maps each role to the train fields it may write.
var table = map[string][]string{
	RoleAdmin:             {Wildcard},
	RoleTrainOperator:     {"current_mileage", "operational_notes"},
	RoleMetroOfficer:      {"status_notes", "inspection_notes", "status"},
	RoleCleaner:           {"cleaning_status", "cleaning_notes"},
	RoleMaintenanceWorker: {"maintenance_notes", "status"},
	RoleStaff1:            {"cleaning_status"},
	RoleStaff2:            {"cleaning_status", "operational_notes"},
}

// roleOrder is the declared order of roles for listings.
var roleOrder = []string{
	RoleAdmin, RoleTrainOperator, RoleMetroOfficer, RoleCleaner,
	RoleMaintenanceWorker, RoleStaff1, RoleStaff2,
}

var roleLabels = map[string]string{
	RoleAdmin:             "Administrator",
	RoleTrainOperator:     "Train Operator",
	RoleMetroOfficer:      "Metro Officer",
	RoleCleaner:           "Cleaner",
	RoleMaintenanceWorker: "Maintenance Worker",
	RoleStaff1:            "Staff Level 1",
	RoleStaff2:            "Staff Level 2",
}

// CanEdit reports whether role may write field. Unknown roles may write nothing.
func CanEdit(role, field string) bool {
	for _, f := range table[role] {
		if f == Wildcard || f == field {
			return true
		}
	}
	return false
}

// EditableFields returns a copy of the role's permission set, which may be
// the single entry Wildcard. Unknown roles get an empty slice.
func EditableFields(role string) []string {
	return append([]string{}, table[role]...)
}

// IsRole reports whether role is one of the declared roles.
func IsRole(role string) bool {
	_, ok := table[role]
	return ok
}

// Roles returns every declared role in display order.
func Roles() []string {
	return append([]string{}, roleOrder...)
}

// Label returns the display name for a role, e.g. "Train Operator".
// Unknown roles are title-cased from their snake_case form.
func Label(role string) string {
	if l, ok := roleLabels[role]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(role, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
