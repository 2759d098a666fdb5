package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/metrics"
	"github.com/sawpanic/tickgate/internal/monitor"
)

func newMonitorCmd() *cobra.Command {
	var (
		flags sourceFlags
		host  string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Replay a stream and serve statistics over HTTP",
		Long: `Replay a stream through the engine, then expose a read-only monitor until
interrupted:

  GET /health        liveness and rule order
  GET /stats         statistics counters
  GET /symbols       per-symbol context
  GET /deadletters   dead-letter queue (?offset=N)
  GET /metrics       Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Monitor.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Monitor.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			registry := prometheus.NewRegistry()
			recorder, err := metrics.NewRecorder(registry)
			if err != nil {
				return fmt.Errorf("failed to register metrics: %w", err)
			}

			engine, err := ingest.NewFromConfig(cfg.Rules, ingest.WithObserver(recorder))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := monitor.NewServer(monitor.DefaultServerConfig(cfg.Monitor.Addr()), engine, registry)
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			n, err := flags.replay(ctx, cfg, engine, nil)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Int("records", n).Msg("stream replay stopped")
			} else {
				stats := engine.Statistics()
				log.Info().Int("records", n).
					Int64("verified", stats.Verified).
					Int64("suspect", stats.Suspect).
					Int64("rejected", stats.Rejected).
					Msg("stream replay finished, monitor still serving")
			}

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Monitor host (overrides monitor.host)")
	cmd.Flags().IntVar(&port, "port", 8080, "Monitor port (overrides monitor.port)")

	return cmd
}
