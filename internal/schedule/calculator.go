// Package schedule computes reading due dates and countdowns for seeded
// bacteria. Every function takes "now" explicitly; nothing here reads the clock.
package schedule

import (
	"fmt"
	"time"

	"github.com/ramanasai/incubator/internal/catalog"
)

// ReadyLabel is the countdown label once a reading is due.
const ReadyLabel = "ready"

// DefaultUrgentWithin flags pending readings due within six hours.
const DefaultUrgentWithin = 6 * time.Hour

// DueAt is seeded plus exactly delayHours hours. No calendar rounding.
func DueAt(seeded time.Time, delayHours int) time.Time {
	return seeded.Add(time.Duration(delayHours) * time.Hour)
}

// IsReady reports whether due has been reached at now.
func IsReady(now, due time.Time) bool {
	return !now.Before(due)
}

// Remaining is the countdown to a due time.
type Remaining struct {
	Duration time.Duration // <= 0 once ready
	Ready    bool
	Label    string
}

// TimeRemaining returns the countdown from now to due. Under a day the label
// is in whole hours rounded up ("5h"), otherwise in days rounded up ("2j").
func TimeRemaining(now, due time.Time) Remaining {
	d := due.Sub(now)
	if d <= 0 {
		return Remaining{Duration: d, Ready: true, Label: ReadyLabel}
	}
	hours := int((d + time.Hour - 1) / time.Hour)
	if hours < 24 {
		return Remaining{Duration: d, Label: fmt.Sprintf("%dh", hours)}
	}
	days := (hours + 23) / 24
	return Remaining{Duration: d, Label: fmt.Sprintf("%dj", days)}
}

// Schedule is the reading plan for one bacterium of a batch.
type Schedule struct {
	BacteriumID  string    `json:"bacterium_id"`
	Name         string    `json:"name"`
	Known        bool      `json:"known"`
	SeededAt     time.Time `json:"seeded_at"`
	DueAt        time.Time `json:"due_at"`
	ReadingDay   string    `json:"reading_day"`
	DelayHours   int       `json:"delay_hours"`
	DelayDisplay string    `json:"delay_display"`
	Ready        bool      `json:"ready"`
	Remaining    Remaining `json:"remaining"`
	Urgent       bool      `json:"urgent"`
}

// Compute builds the schedule of def seeded at seeded, as seen at now.
// urgentWithin <= 0 uses DefaultUrgentWithin.
func Compute(def catalog.Definition, known bool, seeded, now time.Time, urgentWithin time.Duration) Schedule {
	if urgentWithin <= 0 {
		urgentWithin = DefaultUrgentWithin
	}
	hours := def.DelayHours
	if hours <= 0 {
		hours = catalog.FallbackDelayHours
	}
	due := DueAt(seeded, hours)
	rem := TimeRemaining(now, due)
	return Schedule{
		BacteriumID:  def.ID,
		Name:         def.Name,
		Known:        known,
		SeededAt:     seeded,
		DueAt:        due,
		ReadingDay:   WeekdayName(due.In(now.Location()).Weekday()),
		DelayHours:   hours,
		DelayDisplay: catalog.FormatDelay(hours),
		Ready:        rem.Ready,
		Remaining:    rem,
		Urgent:       !rem.Ready && rem.Duration < urgentWithin,
	}
}

// ForIDs computes one schedule per bacterium id. Unknown ids get the
// fallback delay and are marked Known=false rather than failing the batch.
func ForIDs(c *catalog.Catalog, ids []string, seeded, now time.Time, urgentWithin time.Duration) []Schedule {
	out := make([]Schedule, 0, len(ids))
	for _, id := range ids {
		def, ok := c.Lookup(id)
		if !ok {
			def = catalog.Fallback(id)
			def.ID = id
		}
		out = append(out, Compute(def, ok, seeded, now, urgentWithin))
	}
	return out
}

var weekdayNames = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

// WeekdayName is the lab-facing weekday label stored with each reading.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}
