package schedule

import (
	"context"
	"time"

	"github.com/ramanasai/incubator/internal/config"
)

// NextReminder computes the next occurrence of the reminder time that falls
// on a configured workday and is not a holiday.
func NextReminder(now time.Time, cfg config.ReminderConfig, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	// parse "HH:MM"
	hour, min := 8, 0
	if len(cfg.Time) >= 4 {
		if t, err := time.ParseInLocation("15:04", cfg.Time, loc); err == nil {
			hour = t.Hour()
			min = t.Minute()
		}
	}
	workdays := map[string]bool{}
	for _, d := range config.NormalizeWorkdays(cfg.Workdays) {
		workdays[d] = true
	}
	holidays := map[string]bool{}
	for _, h := range cfg.Holidays {
		holidays[h] = true
	}
	open := func(t time.Time) bool {
		if len(workdays) > 0 && !workdays[t.Weekday().String()[:3]] {
			return false
		}
		return !holidays[t.Format("2006-01-02")]
	}

	// candidate today at hh:mm; AddDate keeps wall time across DST changes
	cand := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, loc)
	if !now.Before(cand) {
		cand = cand.AddDate(0, 0, 1)
	}
	for i := 0; i < 366; i++ {
		if open(cand) {
			return cand
		}
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}

// RunReminders calls f at every reminder time until ctx is canceled.
func RunReminders(ctx context.Context, cfg config.ReminderConfig, loc *time.Location, clock func() time.Time, f func(now time.Time)) {
	if clock == nil {
		clock = time.Now
	}
	next := NextReminder(clock(), cfg, loc)
	t := time.NewTimer(next.Sub(clock()))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			now := clock()
			f(now)
			next = NextReminder(now, cfg, loc)
			t.Reset(next.Sub(clock()))
		}
	}
}
