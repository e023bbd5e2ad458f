package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/ui"
)

var boardBatch string

// boardCmd opens the interactive week board. Reminders run alongside it
// when enabled in the config.
var boardCmd = &cobra.Command{
	Use:     "board",
	Aliases: []string{"tui"},
	Short:   "Interactive reading board",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, done, err := openService(ctx)
		if err != nil {
			return err
		}
		defer done()

		startReminders(ctx, svc)

		load := func(ctx context.Context) ([]reading.Item, error) {
			return svc.Items(ctx, db.ReadingFilter{FormID: boardBatch})
		}
		return ui.Run(load, svc.Catalog().DelayFor, svc.Location())
	},
}

func init() {
	boardCmd.Flags().StringVarP(&boardBatch, "batch", "b", "", "Only this batch")
}
