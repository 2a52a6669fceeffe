/*
PURPOSE:
  Defines the 'presets' subcommand.
  Lists the built-in parameter presets.

ARCHITECTURE INTEGRATION:
  - Calls: internal/params.DefaultCatalog()

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  pfr-console presets
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/pfr-console/internal/params"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the parameter presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		printPresets(cmd.OutOrStdout(), params.DefaultCatalog().List())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}
