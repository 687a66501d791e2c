package dashboard

import (
	"html/template"
	"strings"
	"time"

	"github.com/zulandar/induction/internal/permission"
)

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"roleLabel":  permission.Label,
	"fieldLabel": fieldLabel,
	"date":       formatDate,
	"join":       strings.Join,
	"isWildcard": func(fields []string) bool {
		return len(fields) == 1 && fields[0] == permission.Wildcard
	},
}

// fieldLabel turns a snake_case attribute name into "Title Case".
func fieldLabel(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatDate renders an optional date as YYYY-MM-DD, or "—" when unset.
func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format(time.DateOnly)
}
