package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/selection"
	"github.com/ramanasai/incubator/internal/utils"
)

var seedAt string

// seedCmd stores the reading schedule of a batch. Without ids it seeds the
// batch's current selection.
var seedCmd = &cobra.Command{
	Use:   "seed <batch> [bacterium-id...]",
	Short: "Record seeding of a batch and schedule its readings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, done, err := openService(ctx)
		if err != nil {
			return err
		}
		defer done()

		batch, ids := args[0], args[1:]
		if len(ids) == 0 {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			sess := svc.Session(batch, selection.NewDiskCache(dir))
			ids = sess.Current()
			sess.Close()
			if len(ids) == 0 {
				return fmt.Errorf("batch %s has no selected bacteria; pass ids or use `incubator select add`", batch)
			}
		}

		seeded, err := utils.ParseFlexibleDate(seedAt, svc.Now(), svc.Location())
		if err != nil {
			return err
		}
		plans, err := svc.Seed(ctx, batch, seeded, ids)
		if err != nil {
			return err
		}
		return render(svc, func(r *utils.Renderer) (string, error) { return r.RenderSchedules(batch, plans) })
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedAt, "at", "a", "now", "Seeding time (now, today 08:30, 2h ago, 2025-06-02 09:00)")
}
