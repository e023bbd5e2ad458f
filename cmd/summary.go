package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/reading"
	"github.com/ramanasai/incubator/internal/utils"
)

var summaryBatch string

// summaryCmd prints status counts and what needs reading today.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Reading counts per status and today's work",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		sum, err := svc.Summary(cmd.Context(), db.ReadingFilter{FormID: summaryBatch})
		if err != nil {
			return err
		}
		if f, _ := utils.ParseFormat(format); f == utils.FormatJSON {
			b, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}

		fmt.Printf("Readings (%s):\n", sum.At.Format("2006-01-02 15:04"))
		for _, st := range []reading.Status{
			reading.StatusOverdue, reading.StatusReady, reading.StatusInProgress,
			reading.StatusPending, reading.StatusCompleted,
		} {
			fmt.Printf("  %-12s %3d\n", st.Label(), sum.Counts[st])
		}
		fmt.Printf("  %-12s %3d\n", "Total", sum.Counts.Total())

		list := func(title string, items []reading.Item) {
			if len(items) == 0 {
				return
			}
			fmt.Printf("%s:\n", title)
			for _, it := range items {
				due, _ := it.Due(svc.Catalog().DelayFor)
				fmt.Printf("  %s  %-10s %-24s %s\n", short(it.ID), it.FormID, it.BacteriaName,
					due.In(svc.Location()).Format("Mon 02/01 15:04"))
			}
		}
		list("Overdue", sum.Overdue)
		list("Due today", sum.DueToday)
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryBatch, "batch", "b", "", "Only this batch")
}
