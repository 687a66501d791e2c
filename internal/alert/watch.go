package alert

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/induction/internal/certificate"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns the duration from now until the schedule next fires.
func nextCronDuration(sched cron.Schedule, now time.Time) time.Duration {
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Sweep dispatches one alert per certificate expiring within windowDays of
// now and returns how many certificates were found.
func Sweep(ctx context.Context, db *gorm.DB, d *Dispatcher, now time.Time, windowDays int) (int, error) {
	rows, err := certificate.Expiring(db, now, time.Duration(windowDays)*24*time.Hour)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		d.Dispatch(ctx, CertificateExpiry(row))
	}
	return len(rows), nil
}

// WatchOpts holds parameters for Watch.
type WatchOpts struct {
	DB         *gorm.DB
	Dispatcher *Dispatcher
	Schedule   string // 5-field cron
	WindowDays int
	RunNow     bool // sweep once before waiting for the first tick
}

// Watch sweeps for expiring certificates on every schedule tick until ctx
// is cancelled.
func Watch(ctx context.Context, opts WatchOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("alert: watch: db is required")
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return fmt.Errorf("alert: watch: schedule %q: %w", opts.Schedule, err)
	}

	sweep := func() {
		n, err := Sweep(ctx, opts.DB, opts.Dispatcher, time.Now(), opts.WindowDays)
		if err != nil {
			log.Printf("alert: sweep failed: %v", err)
			return
		}
		log.Printf("alert: sweep found %d certificate(s) expiring within %d days", n, opts.WindowDays)
	}
	if opts.RunNow {
		sweep()
	}

	timer := time.NewTimer(nextCronDuration(sched, time.Now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			sweep()
			timer.Reset(nextCronDuration(sched, time.Now()))
		}
	}
}
