package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/selection"
)

var selectPush bool

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Edit the bacteria selected for a batch",
	Long: `Edit the bacteria selected for a batch.

Edits are kept in a local cache until pushed to the database with
"select push" or with --push on the editing command.`,
}

var selectShowCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Show the current selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(ctx context.Context, svc *app.Service, e *selection.Engine) error {
			printSelection(svc, e)
			return nil
		})
	},
}

var selectToggleCmd = &cobra.Command{
	Use:   "toggle <batch> <bacterium-id>...",
	Short: "Toggle bacteria in the selection",
	Args:  cobra.MinimumNArgs(2),
	RunE:  editSelection((*selection.Engine).Toggle),
}

var selectAddCmd = &cobra.Command{
	Use:   "add <batch> <bacterium-id>...",
	Short: "Add bacteria to the selection",
	Args:  cobra.MinimumNArgs(2),
	RunE:  editSelection((*selection.Engine).Add),
}

var selectRemoveCmd = &cobra.Command{
	Use:   "remove <batch> <bacterium-id>...",
	Short: "Remove bacteria from the selection",
	Args:  cobra.MinimumNArgs(2),
	RunE:  editSelection((*selection.Engine).Remove),
}

var selectPullCmd = &cobra.Command{
	Use:   "pull <batch>",
	Short: "Replace the local selection with the one stored for the batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(ctx context.Context, svc *app.Service, e *selection.Engine) error {
			changed, err := e.Pull(ctx)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Println("Already up to date")
			}
			printSelection(svc, e)
			return nil
		})
	},
}

var selectPushCmd = &cobra.Command{
	Use:   "push <batch>",
	Short: "Store the local selection as the batch's readings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], push)
	},
}

var selectResetCmd = &cobra.Command{
	Use:   "reset <batch>",
	Short: "Clear the local selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(ctx context.Context, svc *app.Service, e *selection.Engine) error {
			if err := e.Reset(); err != nil {
				return err
			}
			fmt.Printf("Selection of %s cleared\n", e.BatchID())
			return nil
		})
	},
}

// withSession opens a selection session for batch, runs fn and writes any
// pending cache update before closing.
func withSession(cmd *cobra.Command, batch string, fn func(context.Context, *app.Service, *selection.Engine) error) error {
	ctx := cmd.Context()
	svc, done, err := openService(ctx)
	if err != nil {
		return err
	}
	defer done()
	dir, err := cacheDir()
	if err != nil {
		return err
	}
	e := svc.Session(batch, selection.NewDiskCache(dir))
	defer e.Close()

	err = fn(ctx, svc, e)
	e.Flush()
	return err
}

func editSelection(op func(*selection.Engine, string) bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, args[0], func(ctx context.Context, svc *app.Service, e *selection.Engine) error {
			for _, id := range args[1:] {
				if _, err := svc.Catalog().Get(id); err != nil && !slices.Contains(e.Current(), id) {
					return err
				}
				op(e, id)
			}
			printSelection(svc, e)
			if selectPush {
				return push(ctx, svc, e)
			}
			return nil
		})
	}
}

func push(ctx context.Context, svc *app.Service, e *selection.Engine) error {
	e.Flush()
	pushed, err := e.Push(ctx)
	if errors.Is(err, selection.ErrRemoteUnseen) {
		return fmt.Errorf("%w: run \"incubator select pull %s\" first", err, e.BatchID())
	}
	if err != nil {
		return err
	}
	if pushed {
		fmt.Printf("Stored %d bacteria for %s\n", len(e.Current()), e.BatchID())
	} else {
		fmt.Println("Nothing to push")
	}
	return nil
}

func printSelection(svc *app.Service, e *selection.Engine) {
	ids := e.Current()
	if len(ids) == 0 {
		fmt.Printf("%s: nothing selected\n", e.BatchID())
		return
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		d, _ := svc.Catalog().DefinitionOrFallback(id)
		names[i] = fmt.Sprintf("%s (%s)", d.Name, d.DelayDisplay)
	}
	fmt.Printf("%s: %s\n", e.BatchID(), strings.Join(names, ", "))
}

func init() {
	for _, c := range []*cobra.Command{selectToggleCmd, selectAddCmd, selectRemoveCmd} {
		c.Flags().BoolVar(&selectPush, "push", false, "Store the selection right away")
	}
	selectCmd.AddCommand(selectShowCmd, selectToggleCmd, selectAddCmd, selectRemoveCmd,
		selectPullCmd, selectPushCmd, selectResetCmd)
}
