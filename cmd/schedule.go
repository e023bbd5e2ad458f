package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/utils"
)

var scheduleSeeded string

// scheduleCmd previews due times without storing anything.
var scheduleCmd = &cobra.Command{
	Use:   "schedule <bacterium-id>...",
	Short: "Preview reading times for bacteria seeded at a given time",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		seeded, err := utils.ParseFlexibleDate(scheduleSeeded, svc.Now(), svc.Location())
		if err != nil {
			return err
		}
		plans := svc.ComputeSchedule(args, seeded)
		return render(svc, func(r *utils.Renderer) (string, error) { return r.RenderSchedules("", plans) })
	},
}

func init() {
	scheduleCmd.Flags().StringVarP(&scheduleSeeded, "seeded", "s", "now", "Seeding time (now, today 08:30, 2h ago, 2025-06-02 09:00)")
}
