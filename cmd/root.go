package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/config"
	"github.com/ramanasai/incubator/internal/db"
	"github.com/ramanasai/incubator/internal/logging"
	"github.com/ramanasai/incubator/internal/utils"
)

var (
	cfg     config.Config
	logger  = zap.NewNop()
	verbose bool
	format  string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "incubator",
	Short: "Incubation schedules and reading status for microbiology samples",
	Long: `incubator tracks seeded bacteria through incubation and reading.

Seed a batch, and each bacterium gets a reading due time from its incubation
delay. Readings are pending until their due day, ready on it, overdue after it,
and closed once completed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error { return rootCmd.Execute() }

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "default", "Output format: default|table|json|csv|compact|quiet")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colors")

	rootCmd.AddCommand(
		catalogCmd, scheduleCmd, seedCmd, readingsCmd, calendarCmd, startCmd, completeCmd,
		selectCmd, sampleCmd, summaryCmd, backfillCmd, boardCmd, remindCmd, versionCmd,
	)
}

// openService opens the store under the data directory and builds the
// service over it. The returned func closes the store.
func openService(ctx context.Context) (*app.Service, func(), error) {
	dir, err := cfg.DataPath()
	if err != nil {
		return nil, nil, err
	}
	store, err := db.Open(filepath.Join(dir, "incubator.db"), db.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	svc, err := app.New(ctx, store, cfg, app.WithLogger(logger))
	if err != nil {
		return nil, nil, errors.Join(err, store.Close())
	}
	return svc, func() { _ = store.Close() }, nil
}

func cacheDir() (string, error) {
	dir, err := cfg.DataPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

func newRenderer(svc *app.Service) (*utils.Renderer, error) {
	f, err := utils.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	rc := utils.DefaultRenderConfig()
	rc.Format = f
	rc.Color = !noColor
	rc.Location = svc.Location()
	return utils.NewRenderer(rc), nil
}

// render prints what fn renders, with a trailing newline.
func render(svc *app.Service, fn func(*utils.Renderer) (string, error)) error {
	r, err := newRenderer(svc)
	if err != nil {
		return err
	}
	out, err := fn(r)
	if err != nil {
		return err
	}
	if out == "" {
		return nil
	}
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
