// Package calendar buckets scheduled readings for day and week views.
// Grouping never mutates its input and is stable for identical input.
package calendar

import (
	"sort"
	"time"

	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/schedule"
)

// DateKey is the ISO day layout used for day buckets.
const DateKey = "2006-01-02"

// View selects the grouping shape.
type View string

const (
	ViewDay  View = "day"
	ViewWeek View = "week"
)

// Entry is an item with its resolved due time and status.
type Entry struct {
	Item   reading.Item   `json:"item"`
	DueAt  time.Time      `json:"due_at"`
	Status reading.Status `json:"status"`
}

// Bucket is one weekday column of the week view.
type Bucket struct {
	Index   int       `json:"index"` // 0 = Monday ... 6 = Sunday
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
	Entries []Entry   `json:"entries"`
}

// Grouped is the result of Group. Days is set for the day view, Week for
// the week view. Skipped counts items with no derivable due time;
// OutsideWeek counts week-view items due in another week.
type Grouped struct {
	View        View               `json:"view"`
	Days        map[string][]Entry `json:"days,omitempty"`
	Keys        []string           `json:"keys,omitempty"`
	Week        []Bucket           `json:"week,omitempty"`
	Skipped     int                `json:"skipped"`
	OutsideWeek int                `json:"outside_week,omitempty"`
}

// WeekdayIndex maps a weekday to a Monday-first index; Sunday is 6.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekOf returns midnight of the Monday starting now's week, in now's location.
func WeekOf(now time.Time) time.Time {
	start := reading.StartOfDay(now, now.Location())
	return start.AddDate(0, 0, -WeekdayIndex(start.Weekday()))
}

func entries(items []reading.Item, delay reading.DelayLookup, now time.Time) ([]Entry, int) {
	out := make([]Entry, 0, len(items))
	skipped := 0
	for _, it := range items {
		due, ok := it.Due(delay)
		if !ok {
			skipped++
			continue
		}
		out = append(out, Entry{
			Item:   it,
			DueAt:  due.In(now.Location()),
			Status: reading.ResolveDue(it.Recorded, due, true, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].Item.ID < out[j].Item.ID
	})
	return out, skipped
}

// ByDueDay groups items by the calendar day of their due time in now's
// location. Items with no due time are left out.
func ByDueDay(items []reading.Item, delay reading.DelayLookup, now time.Time) map[string][]Entry {
	es, _ := entries(items, delay, now)
	days := make(map[string][]Entry)
	for _, e := range es {
		k := e.DueAt.Format(DateKey)
		days[k] = append(days[k], e)
	}
	return days
}

// ByWeekday returns seven Monday-first buckets. Each item lands in the bucket
// of its due weekday regardless of which week it falls in, so callers
// showing a single week filter with InWeek first. Date is the matching day
// of now's week.
func ByWeekday(items []reading.Item, delay reading.DelayLookup, now time.Time) []Bucket {
	es, _ := entries(items, delay, now)
	monday := WeekOf(now)
	week := make([]Bucket, 7)
	for i := range week {
		d := monday.AddDate(0, 0, i)
		week[i] = Bucket{Index: i, Name: schedule.WeekdayName(d.Weekday()), Date: d}
	}
	for _, e := range es {
		i := WeekdayIndex(e.DueAt.Weekday())
		week[i].Entries = append(week[i].Entries, e)
	}
	return week
}

// InWeek keeps only items due within the Monday-start week containing now.
func InWeek(items []reading.Item, delay reading.DelayLookup, now time.Time) []reading.Item {
	start := WeekOf(now)
	end := start.AddDate(0, 0, 7)
	var out []reading.Item
	for _, it := range items {
		due, ok := it.Due(delay)
		if !ok {
			continue
		}
		if !due.Before(start) && due.Before(end) {
			out = append(out, it)
		}
	}
	return out
}

// Group builds the requested view. The week view holds only items due in
// now's week. Unknown views fall back to the day view.
func Group(items []reading.Item, view View, delay reading.DelayLookup, now time.Time) Grouped {
	_, skipped := entries(items, delay, now)
	if view == ViewWeek {
		in := InWeek(items, delay, now)
		return Grouped{
			View:        ViewWeek,
			Week:        ByWeekday(in, delay, now),
			Skipped:     skipped,
			OutsideWeek: len(items) - skipped - len(in),
		}
	}
	days := ByDueDay(items, delay, now)
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Grouped{View: ViewDay, Days: days, Keys: keys, Skipped: skipped}
}
