package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/app"
	"github.com/ramanasai/incubator/internal/catalog"
	"github.com/ramanasai/incubator/internal/utils"
)

var (
	catalogAll     bool
	catalogName    string
	catalogColor   string
	catalogDesc    string
	catalogEnable  bool
	catalogDisable bool
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"bacteria"},
	Short:   "List and edit bacterium incubation delays",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bacteria and their delays",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, done, err := openService(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		defs := svc.Catalog().Enabled()
		if catalogAll {
			defs = svc.Catalog().All()
		}
		return render(svc, func(r *utils.Renderer) (string, error) { return r.RenderCatalog(defs) })
	},
}

var catalogSetDelayCmd = &cobra.Command{
	Use:   "set-delay <id> <delay>",
	Short: "Change the incubation delay of a bacterium (e.g. 48, 2j, 1j12h)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, ok := catalog.ParseDelay(args[1])
		if !ok {
			return fmt.Errorf("invalid delay %q: %w", args[1], catalog.ErrInvalidDelay)
		}
		return editCatalog(cmd, func(svc *app.Service) error {
			if err := svc.Catalog().SetDelay(args[0], hours); err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", args[0], catalog.FormatDelay(hours))
			return nil
		})
	},
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rename, recolor, enable or disable a bacterium",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogEnable && catalogDisable {
			return fmt.Errorf("--enable and --disable are exclusive")
		}
		var p catalog.Patch
		flags := cmd.Flags()
		if flags.Changed("name") {
			p.Name = &catalogName
		}
		if flags.Changed("color") {
			p.Color = &catalogColor
		}
		if flags.Changed("description") {
			p.Description = &catalogDesc
		}
		if catalogEnable || catalogDisable {
			enabled := catalogEnable
			p.Enabled = &enabled
		}
		return editCatalog(cmd, func(svc *app.Service) error {
			if err := svc.Catalog().Update(args[0], p); err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", args[0])
			return nil
		})
	},
}

var catalogResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editCatalog(cmd, func(svc *app.Service) error {
			svc.Catalog().ResetToDefaults()
			fmt.Printf("Catalog reset to %d default bacteria\n", len(svc.Catalog().All()))
			return nil
		})
	},
}

// editCatalog applies edit and saves the catalog when it succeeds.
func editCatalog(cmd *cobra.Command, edit func(*app.Service) error) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()
	if err := edit(svc); err != nil {
		return err
	}
	return svc.SaveCatalog(cmd.Context())
}

func init() {
	catalogListCmd.Flags().BoolVarP(&catalogAll, "all", "a", false, "Include disabled bacteria")

	catalogUpdateCmd.Flags().StringVar(&catalogName, "name", "", "Display name")
	catalogUpdateCmd.Flags().StringVar(&catalogColor, "color", "", "Accent color (hex)")
	catalogUpdateCmd.Flags().StringVar(&catalogDesc, "description", "", "Free text description")
	catalogUpdateCmd.Flags().BoolVar(&catalogEnable, "enable", false, "Offer the bacterium for selection")
	catalogUpdateCmd.Flags().BoolVar(&catalogDisable, "disable", false, "Hide the bacterium from selection")

	catalogCmd.AddCommand(catalogListCmd, catalogSetDelayCmd, catalogUpdateCmd, catalogResetCmd)
}
