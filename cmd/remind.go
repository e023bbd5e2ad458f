package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/notify"
	"github.com/ramanasai/incubator/internal/schedule"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send the due-readings desktop notification now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		sent, err := sendReminder(cmd.Context(), svc)
		if err != nil {
			return err
		}
		if !sent {
			fmt.Println("Nothing to read")
		}
		return nil
	},
}

// sendReminder notifies about ready and overdue readings. It reports
// whether a notification went out.
func sendReminder(ctx context.Context, svc *app.Service) (bool, error) {
	sum, err := svc.Summary(ctx, db.ReadingFilter{})
	if err != nil {
		return false, err
	}
	if sum.Counts.Actionable() == 0 {
		return false, nil
	}
	var names []string
	for _, it := range append(sum.Overdue, sum.DueToday...) {
		names = append(names, it.BacteriaName)
	}
	if err := notify.SendDueReminder(sum.Counts, names, notify.Info, notify.Alert); err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}
	logger.Info("reminder sent", zap.Int("ready", len(sum.DueToday)), zap.Int("overdue", len(sum.Overdue)))
	return true, nil
}

// startReminders runs the configured reminder loop in the background until
// ctx is canceled.
func startReminders(ctx context.Context, svc *app.Service) {
	if !cfg.Reminder.Enabled {
		return
	}
	logger.Debug("reminders scheduled",
		zap.Time("next", schedule.NextReminder(svc.Now(), cfg.Reminder, svc.Location())))
	go schedule.RunReminders(ctx, cfg.Reminder, svc.Location(), nil, func(time.Time) {
		if _, err := sendReminder(ctx, svc); err != nil {
			logger.Warn("reminder failed", zap.Error(err))
		}
	})
}
