package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/config"
)

var paris = mustLoc("Europe/Paris")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func TestDueAtIsExactHours(t *testing.T) {
	seeded := time.Date(2025, 3, 10, 23, 15, 7, 0, time.UTC)
	for _, h := range []int{1, 24, 48, 72, 96, 120} {
		due := DueAt(seeded, h)
		assert.Equal(t, time.Duration(h)*time.Hour, due.Sub(seeded))
		assert.Equal(t, seeded.Minute(), due.Minute())
		assert.Equal(t, seeded.Second(), due.Second())
	}
}

func TestDueAtAcrossDSTIsElapsedTime(t *testing.T) {
	// Paris moves to summer time on 2025-03-30.
	seeded := time.Date(2025, 3, 29, 12, 0, 0, 0, paris)
	due := DueAt(seeded, 24)
	assert.Equal(t, 24*time.Hour, due.Sub(seeded))
	if paris != time.UTC {
		assert.Equal(t, 13, due.In(paris).Hour())
	}
}

func TestIsReadyMonotonic(t *testing.T) {
	due := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	seen := false
	for now := due.Add(-3 * time.Hour); now.Before(due.Add(72 * time.Hour)); now = now.Add(17 * time.Minute) {
		r := IsReady(now, due)
		if seen {
			require.True(t, r, "regressed at %s", now)
		}
		seen = seen || r
	}
	assert.True(t, seen)
	assert.True(t, IsReady(due, due))
}

func TestTimeRemaining(t *testing.T) {
	due := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	r := TimeRemaining(due, due)
	assert.True(t, r.Ready)
	assert.Equal(t, ReadyLabel, r.Label)

	r = TimeRemaining(due.Add(5*time.Hour), due)
	assert.True(t, r.Ready)
	assert.Negative(t, int64(r.Duration))

	r = TimeRemaining(due.Add(-4*time.Hour-time.Minute), due)
	assert.False(t, r.Ready)
	assert.Equal(t, "5h", r.Label)

	r = TimeRemaining(due.Add(-23*time.Hour), due)
	assert.Equal(t, "23h", r.Label)

	r = TimeRemaining(due.Add(-24*time.Hour), due)
	assert.Equal(t, "1j", r.Label)

	r = TimeRemaining(due.Add(-25*time.Hour), due)
	assert.Equal(t, "2j", r.Label)
}

func TestComputeKnownBacterium(t *testing.T) {
	c := catalog.New(nil)
	def, ok := c.Lookup("coliformes")
	require.True(t, ok)

	seeded := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) // Monday
	now := seeded.Add(45 * time.Hour)
	s := Compute(def, true, seeded, now, 0)

	assert.Equal(t, seeded.Add(48*time.Hour), s.DueAt)
	assert.Equal(t, "mercredi", s.ReadingDay)
	assert.Equal(t, "2j", s.DelayDisplay)
	assert.False(t, s.Ready)
	assert.Equal(t, "3h", s.Remaining.Label)
	assert.True(t, s.Urgent)

	s = Compute(def, true, seeded, seeded.Add(48*time.Hour), 0)
	assert.True(t, s.Ready)
	assert.False(t, s.Urgent)
}

func TestForIDsFallsBackForUnknown(t *testing.T) {
	c := catalog.New(nil)
	seeded := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	out := ForIDs(c, []string{"listeria", "mystery"}, seeded, seeded, time.Hour)
	require.Len(t, out, 2)
	assert.True(t, out[0].Known)
	assert.False(t, out[1].Known)
	assert.Equal(t, "mystery", out[1].BacteriumID)
	assert.Equal(t, catalog.FallbackDelayHours, out[1].DelayHours)
	assert.Equal(t, seeded.Add(24*time.Hour), out[1].DueAt)
}

func TestNextReminderSkipsWeekendAndHolidays(t *testing.T) {
	cfg := config.ReminderConfig{
		Time:     "08:30",
		Workdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		Holidays: []string{"2025-06-09"},
	}
	// Friday after the reminder time.
	now := time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)
	next := NextReminder(now, cfg, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 10, 8, 30, 0, 0, time.UTC), next)

	// Before the reminder time on a workday.
	now = time.Date(2025, 6, 4, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 4, 8, 30, 0, 0, time.UTC), NextReminder(now, cfg, time.UTC))
}

func TestRunRemindersStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunReminders(ctx, config.ReminderConfig{Time: "08:00"}, time.UTC, nil, func(time.Time) { calls.Add(1) })
	}()
	cancel()
	<-done
	assert.Zero(t, calls.Load())
}
