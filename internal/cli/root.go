/*
PURPOSE:
  Defines the root Cobra command for the PFR console CLI.
  Handles global flags, config loading and session construction.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Every subcommand needs the same Load -> Override -> Session sequence.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/pfr-console/main.go
  - Calls: Child commands (simulate, presets, console, serve)
  - Uses: internal/config, internal/engine, internal/output

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init() and applyOverrides().

RELATED FILES:
  - cmd/pfr-console/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"github.com/spf13/cobra"

	"github.com/daryltucker/pfr-console/internal/config"
	"github.com/daryltucker/pfr-console/internal/engine"
	"github.com/daryltucker/pfr-console/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	solverURLOverride    string
	outputDirOverride    string
	boundsPolicyOverride string
	logLevelOverride     string

	rootCmd = &cobra.Command{
		Use:   "pfr-console",
		Short: "Operator console for a remote plug-flow reactor solver",
		Long: `Drives a remote plug-flow reactor (PFR) solver: set inlet temperature, flow velocity
and jacket temperature, run the simulation, compare it with the previous run and export
the profiles. Use 'console' for an interactive session or 'serve' for the browser surface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pfr_console.yaml)")
	rootCmd.PersistentFlags().StringVar(&solverURLOverride, "solver-url", "", "Base URL of the solver service")
	rootCmd.PersistentFlags().StringVarP(&outputDirOverride, "output-dir", "o", "", "Output directory for exports, plots and the run log")
	rootCmd.PersistentFlags().StringVar(&boundsPolicyOverride, "bounds-policy", "", "Out-of-range inputs: pass, clamp or reject")
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	// config.Load handles "no file found" by returning defaults.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := output.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if solverURLOverride != "" {
		cfg.SolverURL = solverURLOverride
	}
	if outputDirOverride != "" {
		cfg.OutputDir = outputDirOverride
	}
	if boundsPolicyOverride != "" {
		cfg.BoundsPolicy = boundsPolicyOverride
	}
	if logLevelOverride != "" {
		cfg.LogLevel = logLevelOverride
	}
}

// openSession loads config and builds a session talking HTTP to the solver.
func openSession() (*engine.Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return engine.NewSession(cfg, nil, nil)
}
