package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Fill missing reading due dates from seeding time and catalog delay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		n, err := svc.Backfill(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Backfilled %d reading(s)\n", n)
		return nil
	},
}
