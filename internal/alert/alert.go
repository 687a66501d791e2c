// Package alert posts fleet notices (trains pulled from service, expiring
// certificates) to chat platforms.
package alert

import (
	"context"
	"log"
)

// Alert is a platform-neutral notice.
type Alert struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
	Color    string // sidebar color hint, e.g. "#e53935"
	Fields   []Field
}

// Field is a key-value pair shown with an alert.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Notifier delivers alerts to one chat platform.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, a Alert) error
}

// Dispatcher fans an alert out to every configured notifier. Delivery is
// best-effort: failures are logged and never returned.
type Dispatcher struct {
	notifiers []Notifier
}

// NewDispatcher returns a Dispatcher over the given notifiers; nil entries
// are skipped.
func NewDispatcher(notifiers ...Notifier) *Dispatcher {
	d := &Dispatcher{}
	for _, n := range notifiers {
		if n != nil {
			d.notifiers = append(d.notifiers, n)
		}
	}
	return d
}

// Enabled reports whether any notifier is configured. A nil Dispatcher is
// disabled.
func (d *Dispatcher) Enabled() bool {
	return d != nil && len(d.notifiers) > 0
}

// Dispatch sends a to every notifier and returns how many accepted it.
func (d *Dispatcher) Dispatch(ctx context.Context, a Alert) int {
	if d == nil {
		return 0
	}
	sent := 0
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			log.Printf("alert: %s: %q not delivered: %v", n.Name(), a.Title, err)
			continue
		}
		sent++
	}
	return sent
}
