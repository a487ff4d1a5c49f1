package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fundledger/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Start the HTTP API on the configured address.

Endpoints:
  GET  /health
  POST /v1/transactions
  GET  /v1/cells/{address}
  GET  /v1/organizations?owner=
  GET  /v1/executions?limit=
  GET  /metrics

Example:
  fundledger serve --db ./fundledger.db --addr 127.0.0.1:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := rootOpts.Config.Server
			if addr == "" {
				addr = cfg.Addr()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = api.Serve(ctx, api.NewRouter(s.host, s.metrics, slog.Default()), api.ServerOptions{
				Addr:            addr,
				ReadTimeout:     cfg.ReadTimeout,
				ShutdownTimeout: cfg.ShutdownTimeout,
				Logger:          slog.Default(),
			})
			if err != nil {
				return WrapExitError(ExitFailure, "server error", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $LEDGER_SERVER_HOST:$LEDGER_SERVER_PORT)")
	return cmd
}
