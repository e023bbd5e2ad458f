package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/db"
)

var completeResult int

var startCmd = &cobra.Command{
	Use:   "start <reading-id>",
	Short: "Mark a due reading as in progress",
	Long:  "Mark a due reading as in progress. The id may be any unique prefix.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], func(ctx context.Context, svc *app.Service, id string) (db.BacteriaSelection, error) {
			return svc.StartReading(ctx, id)
		})
	},
}

var completeCmd = &cobra.Command{
	Use:     "complete <reading-id>",
	Aliases: []string{"done"},
	Short:   "Close a reading",
	Long: `Close a reading. --result records the colony count read on the plate;
completing again with a new count replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result *int
		if cmd.Flags().Changed("result") {
			result = &completeResult
		}
		return transition(cmd, args[0], func(ctx context.Context, svc *app.Service, id string) (db.BacteriaSelection, error) {
			return svc.CompleteReading(ctx, id, result)
		})
	},
}

type transitionFunc func(ctx context.Context, svc *app.Service, id string) (db.BacteriaSelection, error)

func transition(cmd *cobra.Command, ref string, apply transitionFunc) error {
	ctx := cmd.Context()
	svc, done, err := openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	row, err := svc.FindReading(ctx, ref)
	if err != nil {
		return err
	}
	row, err = apply(ctx, svc, row.ID)
	if err != nil {
		return err
	}
	st := svc.ResolveStatus(row.Item())
	fmt.Printf("%s %s (%s): %s", row.FormID, row.BacteriaName, short(row.ID), st.Label())
	if row.Result != nil {
		fmt.Printf(", result %d", *row.Result)
	}
	fmt.Println()
	return nil
}

func init() {
	completeCmd.Flags().IntVarP(&completeResult, "result", "r", 0, "Colony count read on the plate")
}
