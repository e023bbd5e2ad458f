// Package ui is the interactive reading board.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/reading"
)

// Loader fetches the readings shown on the board.
type Loader func(ctx context.Context) ([]reading.Item, error)

type Model struct {
	load  Loader
	delay reading.DelayLookup
	loc   *time.Location
	clock func() time.Time
	theme Theme

	now     time.Time
	view    calendar.View
	items   []reading.Item
	grouped calendar.Grouped
	status  string

	vp            viewport.Model
	ready         bool
	width, height int
}

// NewModel builds a board over load. clock may be nil.
func NewModel(load Loader, delay reading.DelayLookup, loc *time.Location, clock func() time.Time) Model {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	return Model{
		load:  load,
		delay: delay,
		loc:   loc,
		clock: clock,
		theme: DefaultTheme,
		now:   clock().In(loc),
		view:  calendar.ViewWeek,
	}
}

// Run opens the board full screen until the user quits.
func Run(load Loader, delay reading.DelayLookup, loc *time.Location) error {
	p := tea.NewProgram(NewModel(load, delay, loc, nil), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type tickMsg struct{ now time.Time }

type itemsLoadedMsg struct {
	items []reading.Item
	err   error
}

// statuses change at day boundaries, a minute is plenty
func (m Model) tick() tea.Cmd {
	clock := m.clock
	return tea.Tick(time.Minute, func(time.Time) tea.Msg { return tickMsg{now: clock()} })
}

func (m Model) loadCmd() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		items, err := load(ctx)
		return itemsLoadedMsg{items: items, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.loadCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = msg.now.In(m.loc)
		m.regroup()
		return m, m.tick()

	case itemsLoadedMsg:
		if msg.err != nil {
			m.status = "load error: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		m.status = fmt.Sprintf("%d readings", len(m.items))
		m.regroup()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(msg.Height-3, 1)
		if !m.ready {
			m.vp = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.vp.Width, m.vp.Height = msg.Width, h
		}
		m.vp.SetContent(m.renderBody())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "v":
			if m.view == calendar.ViewWeek {
				m.view = calendar.ViewDay
			} else {
				m.view = calendar.ViewWeek
			}
			m.regroup()
			return m, nil
		case "r":
			m.status = "reloading..."
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m *Model) regroup() {
	m.grouped = calendar.Group(m.items, m.view, m.delay, m.now)
	if m.ready {
		m.vp.SetContent(m.renderBody())
	}
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	counts := reading.Count(m.items, m.delay, m.now)
	title := m.theme.Title.Render("Incubator") + "  " +
		m.theme.Label.Render(m.now.Format("Mon 02 Jan 15:04")) + "  " +
		m.theme.Status(reading.StatusReady).Render(fmt.Sprintf("%d à lire", counts[reading.StatusReady])) + "  " +
		m.theme.Status(reading.StatusOverdue).Render(fmt.Sprintf("%d en retard", counts[reading.StatusOverdue]))
	help := m.theme.Hint.Render("v: day/week  r: reload  ↑/↓: scroll  q: quit") + "  " + m.theme.Label.Render(m.status)
	return lipgloss.JoinVertical(lipgloss.Left, title, m.vp.View(), help)
}

// entryLine renders one reading; nameW > 0 truncates the bacterium name.
func (m Model) entryLine(e calendar.Entry, nameW int) string {
	name := e.Item.BacteriaName
	if nameW > 0 {
		name = truncate(name, nameW)
	}
	mark := m.theme.Status(e.Status).Render("●")
	return fmt.Sprintf("%s %s %s", mark, e.DueAt.In(m.loc).Format("15:04"), name)
}

func (m Model) renderBody() string {
	if len(m.items) == 0 {
		return m.theme.Hint.Render("no readings")
	}
	if m.grouped.View == calendar.ViewDay {
		return m.renderDays()
	}
	return m.renderWeek()
}

func (m Model) renderWeek() string {
	colW := max((m.width-2)/7-4, 12)
	today := calendar.WeekdayIndex(m.now.Weekday())
	cols := make([]string, 0, len(m.grouped.Week))
	for _, b := range m.grouped.Week {
		var lines []string
		lines = append(lines, m.theme.Label.Render(fmt.Sprintf("%s %s", b.Name, b.Date.Format("02/01"))))
		for _, e := range b.Entries {
			lines = append(lines, m.entryLine(e, colW-8))
		}
		style := m.theme.Border
		if b.Index == today {
			style = m.theme.Today
		}
		cols = append(cols, style.Width(colW).Render(strings.Join(lines, "\n")))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if m.grouped.OutsideWeek > 0 {
		out += "\n" + m.theme.Hint.Render(fmt.Sprintf("%d due in another week", m.grouped.OutsideWeek))
	}
	return out
}

func (m Model) renderDays() string {
	var b strings.Builder
	for _, k := range m.grouped.Keys {
		b.WriteString(m.theme.Value.Render(k))
		b.WriteString("\n")
		for _, e := range m.grouped.Days[k] {
			b.WriteString("  ")
			b.WriteString(m.entryLine(e, 0))
			b.WriteString("  ")
			b.WriteString(m.theme.Status(e.Status).Render(e.Status.Label()))
			b.WriteString("\n")
		}
	}
	if m.grouped.Skipped > 0 {
		b.WriteString(m.theme.Hint.Render(fmt.Sprintf("%d without due date", m.grouped.Skipped)))
	}
	return b.String()
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w < 2 {
		return string(r[:max(w, 0)])
	}
	return string(r[:w-1]) + "…"
}
