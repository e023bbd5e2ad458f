package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/utils"
)

var (
	readingsBatch    string
	readingsBacteria string
	readingsStatus   string
	readingsDue      string
	readingsPage     int
	readingsLimit    int
)

var readingsCmd = &cobra.Command{
	Use:     "readings",
	Aliases: []string{"ls"},
	Short:   "List scheduled readings with their current status",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		rows, err := svc.ListReadings(cmd.Context(), db.ReadingFilter{FormID: readingsBatch, Bacteria: readingsBacteria})
		if err != nil {
			return err
		}
		all := readingRows(svc, rows)

		filters := map[string]string{}
		if readingsBatch != "" {
			filters["batch"] = readingsBatch
		}
		if readingsBacteria != "" {
			filters["bacteria"] = readingsBacteria
		}
		if readingsStatus != "" {
			want, err := parseStatuses(readingsStatus)
			if err != nil {
				return err
			}
			all = keepRows(all, func(r utils.ReadingRow) bool { return want[r.Status] })
			filters["status"] = readingsStatus
		}
		if readingsDue != "" {
			from, to, err := utils.GetDateRange(readingsDue, svc.Now(), svc.Location())
			if err != nil {
				return err
			}
			all = keepRows(all, func(r utils.ReadingRow) bool {
				return !r.DueAt.IsZero() && !r.DueAt.Before(from) && r.DueAt.Before(to)
			})
			filters["due"] = readingsDue
		}

		p := utils.NewPagination(len(all), readingsLimit, readingsPage)
		list := &utils.ReadingList{
			Title:      "Readings",
			Rows:       utils.Page(all, p),
			Total:      len(all),
			Page:       p.Current,
			PerPage:    p.PerPage,
			TotalPages: p.TotalPages,
			Filters:    filters,
		}
		if err := render(svc, func(r *utils.Renderer) (string, error) { return r.RenderReadingList(list) }); err != nil {
			return err
		}
		if f, _ := utils.ParseFormat(format); f == utils.FormatDefault && p.TotalPages > 1 {
			fmt.Println(p.FormatSummary())
			fmt.Println(p.FormatNavigation())
		}
		return nil
	},
}

// readingRows resolves each stored reading against the service clock.
func readingRows(svc *app.Service, rows []db.BacteriaSelection) []utils.ReadingRow {
	delay := svc.Catalog().DelayFor
	out := make([]utils.ReadingRow, 0, len(rows))
	for _, r := range rows {
		it := r.Item()
		row := utils.ReadingRow{
			ID:       r.ID,
			BatchID:  r.FormID,
			Bacteria: r.BacteriaName,
			Delay:    r.Delay,
			SeededAt: r.SeededAt,
			Status:   svc.ResolveStatus(it),
			Result:   r.Result,
		}
		if due, ok := it.Due(delay); ok {
			row.DueAt = due
		}
		if u, ok := svc.Urgency(it); ok && row.Status != reading.StatusCompleted {
			row.Remaining = u.Label
		}
		if d, ok := svc.Catalog().Lookup(r.BacteriumID); ok {
			row.Bacteria = d.Name
			row.Color = d.Color
		} else if d, ok := svc.Catalog().LookupName(r.BacteriaName); ok {
			row.Color = d.Color
		}
		out = append(out, row)
	}
	return out
}

func keepRows(rows []utils.ReadingRow, keep func(utils.ReadingRow) bool) []utils.ReadingRow {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func parseStatuses(s string) (map[reading.Status]bool, error) {
	want := map[reading.Status]bool{}
	for _, part := range strings.Split(s, ",") {
		st := reading.Status(strings.TrimSpace(strings.ToLower(part)))
		switch st {
		case reading.StatusPending, reading.StatusReady, reading.StatusInProgress,
			reading.StatusCompleted, reading.StatusOverdue:
			want[st] = true
		case "":
		default:
			return nil, fmt.Errorf("unknown status %q", part)
		}
	}
	return want, nil
}

func init() {
	readingsCmd.Flags().StringVarP(&readingsBatch, "batch", "b", "", "Only this batch")
	readingsCmd.Flags().StringVar(&readingsBacteria, "bacteria", "", "Bacterium name contains")
	readingsCmd.Flags().StringVarP(&readingsStatus, "status", "s", "", "Comma separated statuses: pending,ready,in_progress,completed,overdue")
	readingsCmd.Flags().StringVarP(&readingsDue, "due", "d", "", "Due window: today|yesterday|tomorrow|week|next7days")
	readingsCmd.Flags().IntVarP(&readingsPage, "page", "p", 1, "Page number")
	readingsCmd.Flags().IntVarP(&readingsLimit, "limit", "n", 20, "Readings per page (0 for all)")
}
