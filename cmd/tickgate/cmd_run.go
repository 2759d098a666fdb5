package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/report"
	"github.com/sawpanic/tickgate/internal/tick"
)

func newRunCmd() *cobra.Command {
	var (
		flags  sourceFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate a tick stream and print a report",
		Long: `Validate every record of a stream and print one line per record followed by
the engine statistics.

Examples:
  tickgate run --demo
  tickgate run --input ticks.jsonl --format json
  cat ticks.jsonl | tickgate run --input -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != string(report.FormatTable) && format != string(report.FormatJSON) {
				return fmt.Errorf("unknown format %q (table|json)", format)
			}

			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			engine, err := ingest.NewFromConfig(cfg.Rules)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := report.New(cmd.OutOrStdout(), report.Format(format))
			if err := out.Header(); err != nil {
				return err
			}

			n, err := flags.replay(ctx, cfg, engine, func(raw tick.Raw, res ingest.Result) error {
				return out.Result(raw, res)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("replay stopped after %d records: %w", n, err)
			}

			log.Info().Int("records", n).Msg("stream replay finished")
			return out.Summary(engine.Statistics())
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", string(report.FormatTable), "Output format (table|json)")

	return cmd
}
