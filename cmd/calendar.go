package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/calendar"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/utils"
)

var (
	calendarView  string
	calendarBatch string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Group readings by due day or by weekday of the current week",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		view := calendar.View(calendarView)
		if view != calendar.ViewDay && view != calendar.ViewWeek {
			return fmt.Errorf("unknown view %q (day|week)", calendarView)
		}
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		items, err := svc.Items(cmd.Context(), db.ReadingFilter{FormID: calendarBatch})
		if err != nil {
			return err
		}
		g := svc.GroupForCalendar(items, view)
		return render(svc, func(r *utils.Renderer) (string, error) { return r.RenderCalendar(g) })
	},
}

func init() {
	calendarCmd.Flags().StringVar(&calendarView, "view", string(calendar.ViewWeek), "day or week")
	calendarCmd.Flags().StringVarP(&calendarBatch, "batch", "b", "", "Only this batch")
}
