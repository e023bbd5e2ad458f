package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/schedule"
)

var delays = catalog.New(nil).DelayFor

func item(name string, recorded Recorded, seeded time.Time) Item {
	return Item{ID: "r1", FormID: "f1", BacteriaName: name, Recorded: recorded, SeededAt: seeded}
}

func TestCompletedAndInProgressWin(t *testing.T) {
	seeded := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	for _, now := range []time.Time{
		seeded,
		seeded.Add(24 * time.Hour),
		seeded.Add(30 * 24 * time.Hour),
	} {
		it := item("Listeria", RecordedCompleted, seeded)
		assert.Equal(t, StatusCompleted, Resolve(it, delays, now))
		assert.Equal(t, StatusCompleted, Resolve(it, delays, now), "idempotent")

		it.Recorded = RecordedInProgress
		assert.Equal(t, StatusInProgress, Resolve(it, delays, now))
	}
	assert.Equal(t, StatusCompleted, Resolve(Item{Recorded: RecordedCompleted}, delays, seeded))
}

func TestDueDayComparison(t *testing.T) {
	seeded := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC) // Escherichia coli, 24h
	it := item("Escherichia coli", RecordedPending, seeded)

	assert.Equal(t, StatusPending, Resolve(it, delays, seeded.Add(2*time.Hour)))
	assert.Equal(t, StatusReady, Resolve(it, delays, time.Date(2025, 5, 6, 0, 0, 1, 0, time.UTC)))
	assert.Equal(t, StatusReady, Resolve(it, delays, time.Date(2025, 5, 6, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, StatusOverdue, Resolve(it, delays, time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)))
}

func TestRecordedOverdueIsRecomputed(t *testing.T) {
	seeded := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	it := item("Listeria", RecordedOverdue, seeded)
	assert.Equal(t, StatusPending, Resolve(it, delays, seeded))
}

func TestDueTodayButHoursNotElapsed(t *testing.T) {
	// Seeded at 08:00, 24h delay, looked at 23h later: same calendar day as
	// the due time, so the day view says ready while the countdown still runs.
	seeded := time.Date(2025, 4, 14, 8, 0, 0, 0, time.UTC)
	now := seeded.Add(23 * time.Hour)
	it := item("Entérobactéries", RecordedPending, seeded)

	assert.Equal(t, StatusReady, Resolve(it, delays, now))
	rem, ok := Urgency(it, delays, now)
	require.True(t, ok)
	assert.False(t, rem.Ready)
	assert.Equal(t, "1h", rem.Label)
}

func TestDueTomorrowIsPendingAtHourLevelToo(t *testing.T) {
	// Seeded at 00:30; 23h later is still the seeding day, due is tomorrow.
	seeded := time.Date(2025, 4, 14, 0, 30, 0, 0, time.UTC)
	now := seeded.Add(23 * time.Hour)
	it := item("Entérobactéries", RecordedPending, seeded)
	assert.Equal(t, StatusPending, Resolve(it, delays, now))
	rem, _ := Urgency(it, delays, now)
	assert.False(t, rem.Ready)
}

func TestOverdueAfterDayPassed(t *testing.T) {
	seeded := time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)
	now := seeded.Add(73 * time.Hour)
	it := item("Coliformes totaux", RecordedPending, seeded)
	assert.Equal(t, StatusOverdue, Resolve(it, delays, now))
}

func TestMissingTimestampsArePending(t *testing.T) {
	now := time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusPending, Resolve(Item{BacteriaName: "Listeria"}, delays, now))
	assert.Equal(t, StatusPending, Resolve(Item{Recorded: RecordedOverdue}, nil, now))
	_, ok := Urgency(Item{}, delays, now)
	assert.False(t, ok)
}

func TestExplicitDueWinsOverDerived(t *testing.T) {
	seeded := time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)
	it := item("Leuconostoc", RecordedPending, seeded)
	it.DueAt = seeded.Add(time.Hour)
	due, ok := it.Due(delays)
	require.True(t, ok)
	assert.Equal(t, it.DueAt, due)
	assert.Equal(t, StatusReady, Resolve(it, delays, seeded))
}

func TestUnknownBacteriumUsesFallbackDelay(t *testing.T) {
	seeded := time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)
	it := item("Salmonella", RecordedPending, seeded)
	due, ok := it.Due(delays)
	require.True(t, ok)
	assert.Equal(t, seeded.Add(24*time.Hour), due)

	due, _ = it.Due(nil)
	assert.Equal(t, seeded.Add(24*time.Hour), due)
}

func TestDayUsesNowLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	due := time.Date(2025, 4, 14, 20, 0, 0, 0, time.UTC) // 15th 05:00 in Tokyo
	now := time.Date(2025, 4, 14, 21, 0, 0, 0, time.UTC).In(tokyo)
	assert.Equal(t, StatusReady, ResolveDue(RecordedPending, due, true, now))
	assert.Equal(t, StatusReady, ResolveDue(RecordedPending, due, true, now.In(time.UTC)))

	now = time.Date(2025, 4, 14, 14, 0, 0, 0, time.UTC).In(tokyo) // 14th 23:00 Tokyo
	assert.Equal(t, StatusPending, ResolveDue(RecordedPending, due, true, now))
	assert.Equal(t, StatusReady, ResolveDue(RecordedPending, due, true, now.In(time.UTC)))
}

func TestHourAndDayViewsAgree(t *testing.T) {
	seeded := time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC)
	for _, def := range catalog.Defaults() {
		for offset := 0; offset < 24*60; offset += 37 {
			s := seeded.Add(time.Duration(offset) * time.Minute)
			due := schedule.DueAt(s, def.DelayHours)
			for now := s; now.Before(due.Add(72 * time.Hour)); now = now.Add(53 * time.Minute) {
				st := ResolveDue(RecordedPending, due, true, now)
				ready := schedule.IsReady(now, due)
				if ready {
					require.NotEqual(t, StatusPending, st, "hour-ready but day-pending: due=%s now=%s", due, now)
				}
				if st == StatusOverdue {
					require.True(t, ready, "day-overdue but not hour-ready: due=%s now=%s", due, now)
				}
			}
		}
	}
}

func TestTransitions(t *testing.T) {
	assert.True(t, CanTransition(RecordedPending, RecordedInProgress))
	assert.True(t, CanTransition(RecordedInProgress, RecordedCompleted))
	assert.True(t, CanTransition(RecordedCompleted, RecordedCompleted))
	assert.False(t, CanTransition(RecordedCompleted, RecordedPending))
	assert.False(t, CanTransition(RecordedCompleted, RecordedInProgress))
	assert.False(t, CanTransition(RecordedPending, Recorded("lost")))
	assert.ErrorIs(t, CheckTransition(RecordedCompleted, RecordedPending), ErrInvalidTransition)
	assert.NoError(t, CheckTransition(RecordedPending, RecordedCompleted))
}

func TestCountAndLabels(t *testing.T) {
	now := time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	items := []Item{
		item("Listeria", RecordedCompleted, now.Add(-96*time.Hour)),
		item("Listeria", RecordedPending, now.Add(-96*time.Hour)),
		item("Listeria", RecordedPending, now.Add(-48*time.Hour)),
		item("Listeria", RecordedPending, now),
		{BacteriaName: "Listeria"},
	}
	c := Count(items, delays, now)
	assert.Equal(t, 1, c[StatusCompleted])
	assert.Equal(t, 1, c[StatusOverdue])
	assert.Equal(t, 1, c[StatusReady])
	assert.Equal(t, 2, c[StatusPending])
	assert.Equal(t, 2, c.Actionable())
	assert.Equal(t, 5, c.Total())

	assert.Equal(t, "En retard", StatusOverdue.Label())
	assert.Equal(t, "En attente", Status("weird").Label())
	assert.True(t, StatusReady.Actionable())
	assert.False(t, StatusInProgress.Actionable())
}
