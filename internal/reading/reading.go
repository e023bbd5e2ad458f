// Package reading resolves the display status of scheduled bacterial readings.
package reading

import (
	"errors"
	"fmt"
	"time"

	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/schedule"
)

// Recorded is the last status explicitly written to the store.
type Recorded string

const (
	RecordedPending    Recorded = "pending"
	RecordedInProgress Recorded = "in_progress"
	RecordedCompleted  Recorded = "completed"
	RecordedOverdue    Recorded = "overdue"
)

// Valid reports whether r is one of the stored statuses.
func (r Recorded) Valid() bool {
	switch r {
	case RecordedPending, RecordedInProgress, RecordedCompleted, RecordedOverdue:
		return true
	}
	return false
}

// Status is the derived, authoritative display status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusOverdue, StatusReady, StatusInProgress, StatusPending, StatusCompleted}

var labels = map[Status]string{
	StatusPending:    "En attente",
	StatusReady:      "Prêt à lire",
	StatusInProgress: "En cours",
	StatusCompleted:  "Terminé",
	StatusOverdue:    "En retard",
}

// Label is the lab-facing label of s.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[StatusPending]
}

// Actionable reports whether a reading in this status should be done now.
func (s Status) Actionable() bool {
	return s == StatusReady || s == StatusOverdue
}

// Item is one scheduled reading for one batch. Zero times mean "absent".
type Item struct {
	ID           string    `json:"id"`
	FormID       string    `json:"form_id"`
	BacteriumID  string    `json:"bacterium_id,omitempty"`
	BacteriaName string    `json:"bacteria_name"`
	Delay        string    `json:"delay"`
	Recorded     Recorded  `json:"status"`
	SeededAt     time.Time `json:"seeded_at"`
	DueAt        time.Time `json:"due_at"`
}

// DelayLookup returns the incubation delay in hours for a bacterium id or
// name.
type DelayLookup func(key string) int

// Due returns the item's due time: the stored one, or seeding plus the
// bacterium delay. ok is false when neither timestamp is present.
func (it Item) Due(delay DelayLookup) (time.Time, bool) {
	if !it.DueAt.IsZero() {
		return it.DueAt, true
	}
	if it.SeededAt.IsZero() {
		return time.Time{}, false
	}
	hours := 0
	if delay != nil {
		hours = delay(it.delayKey())
	}
	if hours <= 0 {
		hours = catalog.FallbackDelayHours
	}
	return schedule.DueAt(it.SeededAt, hours), true
}

// delayKey prefers the catalog id, which survives renames.
func (it Item) delayKey() string {
	if it.BacteriumID != "" {
		return it.BacteriumID
	}
	return it.BacteriaName
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ResolveDue applies the status rules given an already computed due time.
// Day comparisons use now's location.
func ResolveDue(recorded Recorded, due time.Time, hasDue bool, now time.Time) Status {
	switch recorded {
	case RecordedCompleted:
		return StatusCompleted
	case RecordedInProgress:
		return StatusInProgress
	}
	if !hasDue {
		return StatusPending
	}
	today := StartOfDay(now, now.Location())
	dueDay := StartOfDay(due, now.Location())
	switch {
	case dueDay.Before(today):
		return StatusOverdue
	case dueDay.After(today):
		return StatusPending
	default:
		return StatusReady
	}
}

// Resolve derives the display status of it at now.
func Resolve(it Item, delay DelayLookup, now time.Time) Status {
	due, ok := it.Due(delay)
	return ResolveDue(it.Recorded, due, ok, now)
}

// Urgency is the hour-level countdown for an item. It only drives
// presentation; Resolve is authoritative for status.
func Urgency(it Item, delay DelayLookup, now time.Time) (schedule.Remaining, bool) {
	due, ok := it.Due(delay)
	if !ok {
		return schedule.Remaining{}, false
	}
	return schedule.TimeRemaining(now, due), true
}

var ErrInvalidTransition = errors.New("invalid status transition")

// CanTransition reports whether a stored status may move from one value to
// another. Completed readings never regress.
func CanTransition(from, to Recorded) bool {
	if !to.Valid() {
		return false
	}
	if from == RecordedCompleted {
		return to == RecordedCompleted
	}
	return true
}

// CheckTransition is CanTransition with an error.
func CheckTransition(from, to Recorded) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return nil
}

// Counts tallies resolved statuses.
type Counts map[Status]int

// Count resolves every item and tallies the results.
func Count(items []Item, delay DelayLookup, now time.Time) Counts {
	c := Counts{}
	for _, it := range items {
		c[Resolve(it, delay, now)]++
	}
	return c
}

// Actionable is the number of ready plus overdue readings.
func (c Counts) Actionable() int {
	return c[StatusReady] + c[StatusOverdue]
}

// Total is the number of tallied readings.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
