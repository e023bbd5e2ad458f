package notify

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/ramanasai/incubator/internal/reading"
)

// Notifier sends one desktop notification.
type Notifier func(title, message string) error

func Info(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Alert is used when readings are overdue.
func Alert(title, message string) error {
	return beeep.Alert(title, message, "")
}

// FormatDueReminder builds the morning reminder from resolved counts and the
// names of the readings due today. ok is false when nothing needs reading.
func FormatDueReminder(counts reading.Counts, due []string) (title, msg string, ok bool) {
	ready, overdue := counts[reading.StatusReady], counts[reading.StatusOverdue]
	if ready+overdue == 0 {
		return "", "", false
	}
	title = "Lectures du jour"
	if overdue > 0 {
		title = "Lectures en retard"
	}
	msg = fmt.Sprintf("%d à lire aujourd'hui, %d en retard.", ready, overdue)
	if len(due) > 0 {
		const maxNames = 5
		names := due
		if len(names) > maxNames {
			names = append(names[:maxNames:maxNames], fmt.Sprintf("+%d", len(due)-maxNames))
		}
		msg += " " + strings.Join(names, ", ")
	}
	return title, msg, true
}

// SendDueReminder notifies through info, or alert when anything is overdue.
// Nothing is sent when no reading is actionable.
func SendDueReminder(counts reading.Counts, due []string, info, alert Notifier) error {
	title, msg, ok := FormatDueReminder(counts, due)
	if !ok {
		return nil
	}
	if counts[reading.StatusOverdue] > 0 && alert != nil {
		return alert(title, msg)
	}
	return info(title, msg)
}
