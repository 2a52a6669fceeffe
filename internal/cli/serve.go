/*
PURPOSE:
  Defines the 'serve' subcommand.
  Exposes the operator session to browsers over websocket and HTTP.

ARCHITECTURE INTEGRATION:
  - Calls: internal/server.New(...).Serve(ctx)

ERROR HANDLING:
  - Returns listen errors. SIGINT/SIGTERM shut the server down cleanly.

USAGE:
  pfr-console serve --listen :9000
*/

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/pfr-console/internal/engine"
	"github.com/daryltucker/pfr-console/internal/server"
)

var listenOverride string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the operator console over websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listenOverride != "" {
			cfg.ListenAddr = listenOverride
		}
		s, err := engine.NewSession(cfg, nil, nil)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg.ListenAddr, s).Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenOverride, "listen", "", "Listen address (overrides listen_addr)")
}
