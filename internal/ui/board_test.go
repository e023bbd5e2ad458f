package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/reading"
)

// Wednesday 2025-06-04 10:00 UTC.
var now = time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

func items() []reading.Item {
	mon := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	return []reading.Item{
		{ID: "a", BacteriaName: "Escherichia coli", SeededAt: mon},
		{ID: "b", BacteriaName: "Listeria", SeededAt: mon},
	}
}

func newBoard(load Loader) Model {
	return NewModel(load, catalog.New(nil).DelayFor, time.UTC, func() time.Time { return now })
}

func step(t *testing.T, m tea.Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	b, ok := next.(Model)
	require.True(t, ok)
	return b
}

func TestBoardLoadsAndRenders(t *testing.T) {
	m := newBoard(func(context.Context) ([]reading.Item, error) { return items(), nil })
	assert.Equal(t, "loading...", m.View())

	m = step(t, m, tea.WindowSizeMsg{Width: 160, Height: 30})
	msg := m.loadCmd()()
	m = step(t, m, msg)

	out := m.View()
	assert.Contains(t, out, "1 à lire")
	assert.Contains(t, out, "1 en retard")
	assert.Contains(t, out, "mercredi")
	assert.Contains(t, out, "2 readings")
	assert.Equal(t, calendar.ViewWeek, m.grouped.View)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("v")})
	assert.Equal(t, calendar.ViewDay, m.grouped.View)
	assert.Contains(t, m.View(), "2025-06-03")
}

func TestBoardLoadError(t *testing.T) {
	m := newBoard(func(context.Context) ([]reading.Item, error) { return nil, errors.New("db locked") })
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	m = step(t, m, m.loadCmd()())
	assert.Contains(t, m.View(), "load error: db locked")
}

func TestBoardTickMovesStatuses(t *testing.T) {
	m := newBoard(func(context.Context) ([]reading.Item, error) { return items(), nil })
	m = step(t, m, tea.WindowSizeMsg{Width: 160, Height: 30})
	m = step(t, m, m.loadCmd()())

	m = step(t, m, tickMsg{now: now.AddDate(0, 0, 1)})
	counts := reading.Count(m.items, m.delay, m.now)
	assert.Equal(t, 2, counts[reading.StatusOverdue])
}

func TestBoardQuit(t *testing.T) {
	m := newBoard(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Listeria", truncate("Listeria", 8))
	assert.Equal(t, "Liste…", truncate("Listeria", 6))
	assert.Equal(t, "L", truncate("Listeria", 1))
}
