package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/reading"
)

var delays = catalog.New(nil).DelayFor

// Wednesday 2025-06-04 10:00 UTC.
var now = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func fixture() []reading.Item {
	mon := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return []reading.Item{
		// due Tuesday
		{ID: "a", BacteriaName: "Escherichia coli", Recorded: reading.RecordedPending, SeededAt: mon},
		// due Wednesday
		{ID: "b", BacteriaName: "Listeria", Recorded: reading.RecordedPending, SeededAt: mon},
		// due Monday of next week
		{ID: "c", BacteriaName: "Levures/Moisissures (5j)", Recorded: reading.RecordedPending, SeededAt: mon.Add(48 * time.Hour)},
		// due Wednesday, already read
		{ID: "d", BacteriaName: "Flore totales", Recorded: reading.RecordedCompleted, SeededAt: mon.Add(-24 * time.Hour)},
		// explicit due date on Sunday
		{ID: "e", BacteriaName: "Listeria", DueAt: time.Date(2025, 6, 8, 7, 0, 0, 0, time.UTC)},
		// no dates at all
		{ID: "f", BacteriaName: "Listeria"},
	}
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, WeekdayIndex(time.Monday))
	assert.Equal(t, 5, WeekdayIndex(time.Saturday))
	assert.Equal(t, 6, WeekdayIndex(time.Sunday))
}

func TestWeekOf(t *testing.T) {
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), WeekOf(now))
	sunday := time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), WeekOf(sunday))
}

func TestByDueDay(t *testing.T) {
	days := ByDueDay(fixture(), delays, now)
	ids := map[string][]string{}
	for k, es := range days {
		for _, e := range es {
			ids[k] = append(ids[k], e.Item.ID)
		}
	}
	want := map[string][]string{
		"2025-06-03": {"a"},
		"2025-06-04": {"b", "d"},
		"2025-06-08": {"e"},
		"2025-06-09": {"c"},
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("day buckets mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, reading.StatusReady, days["2025-06-04"][0].Status)
	assert.Equal(t, reading.StatusCompleted, days["2025-06-04"][1].Status)
	assert.Equal(t, reading.StatusOverdue, days["2025-06-03"][0].Status)
}

func TestByWeekdayIsPartition(t *testing.T) {
	items := fixture()
	week := ByWeekday(items, delays, now)
	require.Len(t, week, 7)
	assert.Equal(t, "lundi", week[0].Name)
	assert.Equal(t, "dimanche", week[6].Name)
	assert.Equal(t, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC), week[6].Date)

	seen := map[string]int{}
	for _, b := range week {
		for _, e := range b.Entries {
			seen[e.Item.ID]++
			assert.Equal(t, b.Index, WeekdayIndex(e.DueAt.Weekday()))
		}
	}
	for _, it := range items {
		if it.ID == "f" {
			assert.Zero(t, seen[it.ID])
			continue
		}
		assert.Equal(t, 1, seen[it.ID], it.ID)
	}
	assert.Len(t, week[6].Entries, 1)
	assert.Equal(t, "e", week[6].Entries[0].Item.ID)
	assert.Equal(t, "c", week[0].Entries[0].Item.ID)
}

func TestGroupIsStableAndPure(t *testing.T) {
	items := fixture()
	before := append([]reading.Item(nil), items...)

	first := Group(items, ViewDay, delays, now)
	second := Group(items, ViewDay, delays, now)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated grouping differs:\n%s", diff)
	}
	assert.Equal(t, before, items)
	assert.Equal(t, []string{"2025-06-03", "2025-06-04", "2025-06-08", "2025-06-09"}, first.Keys)
	assert.Equal(t, 1, first.Skipped)

	w := Group(items, ViewWeek, delays, now)
	assert.Equal(t, ViewWeek, w.View)
	assert.Len(t, w.Week, 7)
	assert.Nil(t, w.Days)
	assert.Equal(t, 1, w.Skipped)
	assert.Equal(t, 1, w.OutsideWeek)
	assert.Empty(t, w.Week[0].Entries, "c is due next Monday")
	assert.Len(t, w.Week[1].Entries, 1)
	assert.Len(t, w.Week[2].Entries, 2)
	assert.Len(t, w.Week[6].Entries, 1)

	assert.Equal(t, ViewDay, Group(items, View("month"), delays, now).View)
}

func TestGroupEmpty(t *testing.T) {
	g := Group(nil, ViewDay, delays, now)
	assert.Empty(t, g.Days)
	assert.Empty(t, g.Keys)
	w := ByWeekday(nil, delays, now)
	for _, b := range w {
		assert.Empty(t, b.Entries)
	}
}

func TestInWeek(t *testing.T) {
	got := InWeek(fixture(), delays, now)
	var ids []string
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b", "d", "e"}, ids)
}
