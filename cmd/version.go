package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ramanasai/incubator/internal/version"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// no config or database needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(version.GetShortVersion())
			return
		}
		fmt.Println(version.GetVersionInfo())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Only the version number")
}
