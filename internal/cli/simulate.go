/*
PURPOSE:
  Defines the 'simulate' subcommand.
  Runs one simulation and writes its outputs.

REQUIREMENTS:
  User-specified:
  - Start from a preset, optionally override single parameters.
  - Print the KPIs and export the CSV.

  Implementation-discovered:
  - Need to load config first.
  - Only flags the user actually set override the preset.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine.Session (Run, Export, Plot, SaveReport)
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the run fails.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Session.Run -> Outputs.

USAGE:
  pfr-console simulate --preset "Safe Mode" --t-in 290

RELATED FILES:
  - internal/cli/root.go
  - internal/engine/session.go
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/pfr-console/internal/engine"
	"github.com/daryltucker/pfr-console/internal/params"
)

var (
	presetFlag   string
	tInFlag      float64
	velocityFlag float64
	tJacketFlag  float64
	plotFlag     bool
	htmlFlag     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and export the profiles",
	Long: `Sends one request to the solver with the selected inputs, prints the derived KPIs and
writes simulation_pfr_<date>.csv to the output directory. A record of the run is appended
to the run log.`,
	Example: `  # Run the Standard preset (or initial_parameters from pfr_console.yaml)
  pfr-console simulate

  # Start from a preset and override the inlet temperature
  pfr-console simulate --preset "Max Conv" --t-in 330

  # Also write PNG plots and the HTML chart report
  pfr-console simulate --plot --html -o ./runs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if presetFlag != "" {
			if _, err := s.ApplyPreset(presetFlag); err != nil {
				return err
			}
		}
		overrides := []struct {
			flag  string
			field params.Field
			value float64
		}{
			{"t-in", params.FieldTIn, tInFlag},
			{"velocity", params.FieldFlowVelocity, velocityFlag},
			{"t-jacket", params.FieldTJacket, tJacketFlag},
		}
		for _, o := range overrides {
			if cmd.Flags().Changed(o.flag) {
				if err := s.Store.Set(o.field, o.value); err != nil {
					return err
				}
			}
		}

		return simulateOnce(cmd, s)
	},
}

func simulateOnce(cmd *cobra.Command, s *engine.Session) error {
	out := cmd.OutOrStdout()
	printParams(out, s.Store.Get())

	if _, err := s.Run(cmd.Context()); err != nil {
		return err
	}
	kpi, _ := s.KPIs()
	printKPIs(out, kpi)

	path, err := s.Export()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s\n", path)

	if plotFlag {
		paths, err := s.Plot()
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Plot %s\n", p)
		}
	}
	if htmlFlag {
		p, err := s.SaveReport()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report %s\n", p)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&presetFlag, "preset", "", "Preset to start from (see 'presets')")
	simulateCmd.Flags().Float64Var(&tInFlag, "t-in", 0, "Inlet temperature [K]")
	simulateCmd.Flags().Float64Var(&velocityFlag, "velocity", 0, "Flow velocity [m/s]")
	simulateCmd.Flags().Float64Var(&tJacketFlag, "t-jacket", 0, "Jacket temperature [K]")
	simulateCmd.Flags().BoolVar(&plotFlag, "plot", false, "Also write PNG profile plots")
	simulateCmd.Flags().BoolVar(&htmlFlag, "html", false, "Also write the HTML chart report")
}
