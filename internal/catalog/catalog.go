package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("bacterium not found")
	ErrInvalidDelay = errors.New("delay must be a positive number of hours")
)

// Fallback values used when a bacterium is missing from the catalog.
// Scheduling must keep working with incomplete catalog data.
const (
	FallbackDelayHours = 24
	FallbackColor      = "#9399B2"
)

// Definition is one catalog entry.
type Definition struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DelayHours   int    `json:"delay_hours"`
	DelayDisplay string `json:"delay_display"`
	Color        string `json:"color"`
	Enabled      bool   `json:"enabled"`
	Description  string `json:"description,omitempty"`
}

// Patch carries a partial update for Update. Nil fields are left untouched.
type Patch struct {
	Name        *string
	DelayHours  *int
	Color       *string
	Enabled     *bool
	Description *string
}

// Catalog holds the editable bacterium definitions for a session.
// It is created once and passed to whoever needs it.
type Catalog struct {
	items []Definition
}

// New returns a catalog seeded with defs. An empty defs yields the defaults.
func New(defs []Definition) *Catalog {
	if len(defs) == 0 {
		defs = Defaults()
	}
	c := &Catalog{items: make([]Definition, 0, len(defs))}
	for _, d := range defs {
		d.DelayDisplay = FormatDelay(d.DelayHours)
		c.items = append(c.items, d)
	}
	return c
}

func (c *Catalog) index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns the definition with the given id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return Definition{}, false
}

// LookupName returns the definition whose display name matches name.
// Matching ignores surrounding whitespace and case.
func (c *Catalog) LookupName(name string) (Definition, bool) {
	name = strings.TrimSpace(name)
	for _, d := range c.items {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Definition{}, false
}

// Get is Lookup with an error for unknown ids.
func (c *Catalog) Get(id string) (Definition, error) {
	d, ok := c.Lookup(id)
	if !ok {
		return Definition{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	return d, nil
}

// ByName is LookupName with an error for unknown names.
func (c *Catalog) ByName(name string) (Definition, error) {
	d, ok := c.LookupName(name)
	if !ok {
		return Definition{}, fmt.Errorf("name %q: %w", name, ErrNotFound)
	}
	return d, nil
}

// DefinitionOrFallback resolves key as an id, then as a display name, or
// synthesizes a fallback definition carrying the fallback delay and color.
func (c *Catalog) DefinitionOrFallback(key string) (Definition, bool) {
	if d, ok := c.Lookup(key); ok {
		return d, true
	}
	if d, ok := c.LookupName(key); ok {
		return d, true
	}
	return Fallback(key), false
}

// DelayFor returns the incubation delay for a bacterium id or name, or the
// fallback.
func (c *Catalog) DelayFor(key string) int {
	d, _ := c.DefinitionOrFallback(key)
	return d.DelayHours
}

// Fallback builds the placeholder definition for an unknown bacterium.
func Fallback(name string) Definition {
	return Definition{
		ID:           "",
		Name:         name,
		DelayHours:   FallbackDelayHours,
		DelayDisplay: FormatDelay(FallbackDelayHours),
		Color:        FallbackColor,
	}
}

// SetDelay changes the incubation delay and recomputes the display label.
func (c *Catalog) SetDelay(id string, hours int) error {
	if hours <= 0 {
		return fmt.Errorf("%d: %w", hours, ErrInvalidDelay)
	}
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	c.items[i].DelayHours = hours
	c.items[i].DelayDisplay = FormatDelay(hours)
	return nil
}

// Update applies p to the definition with the given id.
func (c *Catalog) Update(id string, p Patch) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	if p.DelayHours != nil && *p.DelayHours <= 0 {
		return fmt.Errorf("%d: %w", *p.DelayHours, ErrInvalidDelay)
	}
	d := c.items[i]
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		d.Name = strings.TrimSpace(*p.Name)
	}
	if p.DelayHours != nil {
		d.DelayHours = *p.DelayHours
	}
	if p.Color != nil {
		d.Color = *p.Color
	}
	if p.Enabled != nil {
		d.Enabled = *p.Enabled
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	d.DelayDisplay = FormatDelay(d.DelayHours)
	c.items[i] = d
	return nil
}

// ResetToDefaults discards every edit.
func (c *Catalog) ResetToDefaults() {
	c.items = New(nil).items
}

// All returns a copy of every definition in catalog order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.items))
	copy(out, c.items)
	return out
}

// Enabled returns the definitions offered for new selections.
func (c *Catalog) Enabled() []Definition {
	var out []Definition
	for _, d := range c.items {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// ByDelay groups enabled definitions by incubation delay, shortest first.
func (c *Catalog) ByDelay() [][]Definition {
	groups := map[int][]Definition{}
	for _, d := range c.Enabled() {
		groups[d.DelayHours] = append(groups[d.DelayHours], d)
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([][]Definition, 0, len(keys))
	for _, k := range keys {
		out = append(out, groups[k])
	}
	return out
}
