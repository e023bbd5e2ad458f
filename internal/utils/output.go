package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/schedule"
)

// OutputFormat represents different output formats
type OutputFormat string

const (
	FormatDefault OutputFormat = "default"
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatCompact OutputFormat = "compact"
	FormatQuiet   OutputFormat = "quiet"
)

// ParseFormat maps a --format flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatDefault, nil
	case FormatDefault, FormatTable, FormatJSON, FormatCSV, FormatCompact, FormatQuiet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// RenderConfig contains configuration for output rendering
type RenderConfig struct {
	Format   OutputFormat
	Width    int
	ShowID   bool
	Color    bool
	Location *time.Location
}

// DefaultRenderConfig returns a default render configuration
func DefaultRenderConfig() *RenderConfig {
	width := 100
	if colEnv := os.Getenv("COLUMNS"); colEnv != "" {
		if v, err := strconv.Atoi(colEnv); err == nil && v > 40 {
			width = v
		}
	}

	return &RenderConfig{
		Format:   FormatDefault,
		Width:    width,
		ShowID:   true,
		Color:    true,
		Location: time.Local,
	}
}

// ReadingRow is one reading as shown to the lab.
type ReadingRow struct {
	ID        string         `json:"id"`
	BatchID   string         `json:"batch_id"`
	Bacteria  string         `json:"bacteria"`
	Delay     string         `json:"delay"`
	SeededAt  time.Time      `json:"seeded_at,omitempty"`
	DueAt     time.Time      `json:"due_at,omitempty"`
	Status    reading.Status `json:"status"`
	Remaining string         `json:"remaining,omitempty"`
	// Result is the colony count recorded at completion.
	Result    *int           `json:"result,omitempty"`
	Color     string         `json:"-"`
}

// ReadingList represents a list of readings with pagination info
type ReadingList struct {
	Title      string            `json:"title,omitempty"`
	Rows       []ReadingRow      `json:"readings"`
	Total      int               `json:"total"`
	Page       int               `json:"page,omitempty"`
	PerPage    int               `json:"per_page,omitempty"`
	TotalPages int               `json:"total_pages,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Renderer handles output formatting
type Renderer struct {
	config *RenderConfig
	styles *Styles
}

// Styles contains lipgloss styles for different elements
type Styles struct {
	Title     lipgloss.Style
	Separator lipgloss.Style
	Meta      lipgloss.Style
	ID        lipgloss.Style
	Date      lipgloss.Style
	Bacteria  lipgloss.Style
	Status    lipgloss.Style
	Highlight lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
}

// NewRenderer creates a new renderer with the given config
func NewRenderer(config *RenderConfig) *Renderer {
	if config == nil {
		config = DefaultRenderConfig()
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	return &Renderer{
		config: config,
		styles: initStyles(config.Color),
	}
}

func initStyles(color bool) *Styles {
	styles := &Styles{}

	if color {
		styles.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
		styles.Separator = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
		styles.Meta = lipgloss.NewStyle().Faint(true)
		styles.ID = lipgloss.NewStyle().Faint(true)
		styles.Date = lipgloss.NewStyle().Faint(true)
		styles.Bacteria = lipgloss.NewStyle().Bold(true)
		styles.Status = lipgloss.NewStyle().Bold(true)
		styles.Highlight = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF"))
		styles.Success = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
		styles.Error = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
		styles.Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAB387"))
	} else {
		// Monochrome styles
		styles.Title = lipgloss.NewStyle().Bold(true)
		styles.Separator = lipgloss.NewStyle()
		styles.Meta = lipgloss.NewStyle()
		styles.ID = lipgloss.NewStyle()
		styles.Date = lipgloss.NewStyle()
		styles.Bacteria = lipgloss.NewStyle().Bold(true)
		styles.Status = lipgloss.NewStyle()
		styles.Highlight = lipgloss.NewStyle().Bold(true)
		styles.Success = lipgloss.NewStyle()
		styles.Error = lipgloss.NewStyle()
		styles.Warning = lipgloss.NewStyle()
	}

	return styles
}

func (r *Renderer) rule() string {
	return r.styles.Separator.Render(strings.Repeat("─", min(r.config.Width, 120)))
}

func (r *Renderer) when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(r.config.Location).Format("2006-01-02 15:04")
}

func (r *Renderer) statusStyle(s reading.Status) lipgloss.Style {
	if !r.config.Color {
		return r.styles.Status
	}
	return r.styles.Status.Foreground(ColorForStatus(s))
}

// RenderReadingList renders readings according to the configured format
func (r *Renderer) RenderReadingList(list *ReadingList) (string, error) {
	switch r.config.Format {
	case FormatJSON:
		return renderJSON(list)
	case FormatCSV:
		return r.renderCSV(list), nil
	case FormatTable:
		return r.renderTable(list), nil
	case FormatCompact:
		return r.renderCompact(list), nil
	case FormatQuiet:
		return r.renderQuiet(list), nil
	default:
		return r.renderDefault(list), nil
	}
}

func (r *Renderer) renderDefault(list *ReadingList) string {
	var builder strings.Builder

	title := list.Title
	if title == "" {
		title = "Readings"
	}
	builder.WriteString(r.styles.Title.Render(title))
	if list.Filters != nil {
		for _, k := range []string{"batch", "status", "due"} {
			if v := list.Filters[k]; v != "" {
				builder.WriteString("  ")
				builder.WriteString(r.styles.Separator.Render(k + ": "))
				builder.WriteString(r.styles.Meta.Render(v))
			}
		}
	}
	builder.WriteString("\n")
	builder.WriteString(r.rule())
	builder.WriteString("\n")

	if list.TotalPages > 1 {
		p := NewPagination(list.Total, list.PerPage, list.Page)
		builder.WriteString(r.styles.Meta.Render(p.FormatSummary()))
		builder.WriteString("\n")
		builder.WriteString(r.rule())
		builder.WriteString("\n")
	}

	if len(list.Rows) == 0 {
		builder.WriteString(r.styles.Meta.Render("  nothing to read"))
		builder.WriteString("\n")
	}
	for _, row := range list.Rows {
		builder.WriteString(r.renderSingleReading(row))
	}

	if list.TotalPages > 1 {
		p := NewPagination(list.Total, list.PerPage, list.Page)
		if nav := p.FormatNavigation(); nav != "" {
			builder.WriteString(r.rule())
			builder.WriteString("\n")
			builder.WriteString(r.styles.Meta.Render(nav))
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func (r *Renderer) renderSingleReading(row ReadingRow) string {
	var parts []string
	if r.config.ShowID {
		parts = append(parts, r.styles.ID.Render("["+shortID(row.ID)+"]"))
	}
	name := r.styles.Bacteria
	if r.config.Color && row.Color != "" {
		name = name.Foreground(lipgloss.Color(row.Color))
	}
	parts = append(parts, name.Render(row.Bacteria))
	if row.Delay != "" {
		parts = append(parts, r.styles.Meta.Render("("+row.Delay+")"))
	}
	parts = append(parts, r.statusStyle(row.Status).Render(row.Status.Label()))

	var b strings.Builder
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n")

	meta := []string{"batch " + row.BatchID, "seeded " + r.when(row.SeededAt), "due " + r.when(row.DueAt)}
	if row.Remaining != "" && row.Remaining != schedule.ReadyLabel {
		meta = append(meta, "in "+row.Remaining)
	}
	if row.Result != nil {
		meta = append(meta, "result "+strconv.Itoa(*row.Result))
	}
	b.WriteString(r.styles.Meta.Render("  " + strings.Join(meta, " | ")))
	b.WriteString("\n")
	return b.String()
}

func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func (r *Renderer) renderCSV(list *ReadingList) string {
	var builder strings.Builder
	builder.WriteString("id,batch_id,bacteria,delay,seeded_at,due_at,status,remaining,result\n")
	for _, row := range list.Rows {
		fields := []string{
			row.ID,
			escapeCSV(row.BatchID),
			escapeCSV(row.Bacteria),
			row.Delay,
			csvTime(row.SeededAt),
			csvTime(row.DueAt),
			string(row.Status),
			row.Remaining,
			resultText(row.Result, ""),
		}
		builder.WriteString(strings.Join(fields, ","))
		builder.WriteString("\n")
	}
	return builder.String()
}

func resultText(n *int, none string) string {
	if n == nil {
		return none
	}
	return strconv.Itoa(*n)
}

func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (r *Renderer) renderTable(list *ReadingList) string {
	var builder strings.Builder
	builder.WriteString("ID\tBatch\tBacteria\tDelay\tDue\tStatus\tResult\n")
	builder.WriteString(strings.Repeat("-", r.config.Width))
	builder.WriteString("\n")
	for _, row := range list.Rows {
		fields := []string{
			shortID(row.ID),
			row.BatchID,
			truncate(row.Bacteria, 28),
			row.Delay,
			r.when(row.DueAt),
			string(row.Status),
			resultText(row.Result, "-"),
		}
		builder.WriteString(strings.Join(fields, "\t"))
		builder.WriteString("\n")
	}
	return builder.String()
}

func (r *Renderer) renderCompact(list *ReadingList) string {
	var builder strings.Builder
	for _, row := range list.Rows {
		due := "-"
		if !row.DueAt.IsZero() {
			due = row.DueAt.In(r.config.Location).Format("01-02 15:04")
		}
		builder.WriteString(fmt.Sprintf("%s %s %s %s\n",
			r.styles.Date.Render(due),
			r.statusStyle(row.Status).Render(string(row.Status)),
			row.BatchID,
			row.Bacteria))
	}
	return builder.String()
}

// renderQuiet renders only the reading ids (for scripting)
func (r *Renderer) renderQuiet(list *ReadingList) string {
	var builder strings.Builder
	for _, row := range list.Rows {
		builder.WriteString(row.ID)
		builder.WriteString("\n")
	}
	return builder.String()
}

// RenderSchedules renders the plan of a seeding.
func (r *Renderer) RenderSchedules(batchID string, plans []schedule.Schedule) (string, error) {
	switch r.config.Format {
	case FormatJSON:
		return renderJSON(plans)
	case FormatCSV:
		var b strings.Builder
		b.WriteString("bacterium_id,name,delay,seeded_at,due_at,reading_day,remaining,urgent\n")
		for _, p := range plans {
			b.WriteString(strings.Join([]string{
				p.BacteriumID, escapeCSV(p.Name), p.DelayDisplay,
				csvTime(p.SeededAt), csvTime(p.DueAt), p.ReadingDay,
				p.Remaining.Label, strconv.FormatBool(p.Urgent),
			}, ","))
			b.WriteString("\n")
		}
		return b.String(), nil
	}

	var b strings.Builder
	title := "Reading schedule"
	if batchID != "" {
		title += " " + batchID
	}
	b.WriteString(r.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")
	for _, p := range plans {
		name := p.Name
		if !p.Known {
			name += " " + r.styles.Warning.Render("(unknown, default delay)")
		}
		left := p.Remaining.Label
		switch {
		case p.Ready:
			left = r.styles.Success.Render(left)
		case p.Urgent:
			left = r.styles.Warning.Render(left)
		}
		b.WriteString(fmt.Sprintf("%-28s %-6s %s %-9s %s\n",
			name, p.DelayDisplay, r.when(p.DueAt), p.ReadingDay, left))
	}
	return b.String(), nil
}

// RenderCatalog renders bacterium definitions.
func (r *Renderer) RenderCatalog(defs []catalog.Definition) (string, error) {
	switch r.config.Format {
	case FormatJSON:
		return renderJSON(defs)
	case FormatCSV:
		var b strings.Builder
		b.WriteString("id,name,delay_hours,delay,enabled\n")
		for _, d := range defs {
			b.WriteString(fmt.Sprintf("%s,%s,%d,%s,%t\n", d.ID, escapeCSV(d.Name), d.DelayHours, d.DelayDisplay, d.Enabled))
		}
		return b.String(), nil
	}

	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Bacteria"))
	b.WriteString("\n")
	b.WriteString(r.rule())
	b.WriteString("\n")
	for _, d := range defs {
		name := r.styles.Bacteria
		if r.config.Color && d.Color != "" {
			name = name.Foreground(lipgloss.Color(d.Color))
		}
		state := ""
		if !d.Enabled {
			state = r.styles.Meta.Render(" (disabled)")
		}
		b.WriteString(fmt.Sprintf("%-16s %s %s%s\n",
			r.styles.ID.Render(d.ID), name.Render(d.Name), r.styles.Meta.Render(d.DelayDisplay), state))
	}
	return b.String(), nil
}

// RenderCalendar renders grouped readings as a day list or a week grid.
func (r *Renderer) RenderCalendar(g calendar.Grouped) (string, error) {
	if r.config.Format == FormatJSON {
		return renderJSON(g)
	}

	var b strings.Builder
	line := func(e calendar.Entry) {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			r.styles.Date.Render(e.DueAt.In(r.config.Location).Format("15:04")),
			r.statusStyle(e.Status).Render(fmt.Sprintf("%-11s", e.Status.Label())),
			e.Item.BacteriaName+" "+r.styles.Meta.Render(e.Item.FormID)))
	}

	if g.View == calendar.ViewWeek {
		b.WriteString(r.styles.Title.Render("Week of " + g.Week[0].Date.Format("2006-01-02")))
		b.WriteString("\n")
		for _, bucket := range g.Week {
			b.WriteString(r.styles.Highlight.Render(fmt.Sprintf("%-9s %s", bucket.Name, bucket.Date.Format("02/01"))))
			b.WriteString(r.styles.Meta.Render(fmt.Sprintf("  %d", len(bucket.Entries))))
			b.WriteString("\n")
			for _, e := range bucket.Entries {
				line(e)
			}
		}
	} else {
		b.WriteString(r.styles.Title.Render("Readings by day"))
		b.WriteString("\n")
		for _, k := range g.Keys {
			b.WriteString(r.styles.Highlight.Render(k))
			b.WriteString("\n")
			for _, e := range g.Days[k] {
				line(e)
			}
		}
	}
	if g.OutsideWeek > 0 {
		b.WriteString(r.styles.Meta.Render(fmt.Sprintf("%d reading(s) due in another week", g.OutsideWeek)))
		b.WriteString("\n")
	}
	if g.Skipped > 0 {
		b.WriteString(r.styles.Meta.Render(fmt.Sprintf("%d reading(s) without a due date", g.Skipped)))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ColorForStatus is the accent color of a resolved status.
func ColorForStatus(s reading.Status) lipgloss.Color {
	switch s {
	case reading.StatusOverdue:
		return lipgloss.Color("#F38BA8") // red
	case reading.StatusReady:
		return lipgloss.Color("#F9E2AF") // yellow
	case reading.StatusInProgress:
		return lipgloss.Color("#89B4FA") // blue
	case reading.StatusCompleted:
		return lipgloss.Color("#A6E3A1") // green
	default:
		return lipgloss.Color("#94E2D5") // teal
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func escapeCSV(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") || strings.Contains(s, "\n") {
		s = strings.ReplaceAll(s, "\"", "\"\"")
		return "\"" + s + "\""
	}
	return s
}
