package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sawpanic/tickgate/internal/config"
	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/stream"
)

// sourceFlags are shared by every command that replays a stream
type sourceFlags struct {
	configPath string
	input      string
	demo       bool
	rate       float64
	logLevel   string
}

func (f *sourceFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML config file (defaults built in)")
	fs.StringVarP(&f.input, "input", "i", "", "Input file (.jsonl or .csv, '-' for stdin JSON lines)")
	fs.BoolVar(&f.demo, "demo", false, "Replay the built-in demo stream")
	fs.Float64Var(&f.rate, "rate", 0, "Records per second (0 = config value, unthrottled by default)")
	fs.StringVar(&f.logLevel, "log-level", "", "Override logging.level")
}

// loadConfig applies flag overrides on top of the config file
func (f *sourceFlags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.rate > 0 {
		cfg.Replay.Rate = f.rate
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	lvl, _ := cfg.Logging.ZerologLevel()
	zerolog.SetGlobalLevel(lvl)
	return cfg, nil
}

// openSource picks the demo stream, stdin or a file. The returned closer is
// never nil.
func (f *sourceFlags) openSource() (stream.Source, io.Closer, error) {
	if f.demo || f.input == "" {
		log.Info().Msg("replaying built-in demo stream")
		return stream.NewDemo(stream.DefaultDemoOptions(time.Now().UTC())), nopCloser{}, nil
	}

	if f.input == "-" {
		return stream.NewJSONL(os.Stdin), nopCloser{}, nil
	}

	file, err := os.Open(f.input)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}

	switch strings.ToLower(filepath.Ext(f.input)) {
	case ".csv":
		return stream.NewCSV(file), file, nil
	default:
		return stream.NewJSONL(file), file, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// replay runs the configured source through engine, calling fn per record
func (f *sourceFlags) replay(ctx context.Context, cfg config.Config, engine *ingest.Engine, fn stream.HandlerFunc) (int, error) {
	src, closer, err := f.openSource()
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	limiter := stream.NewLimiter(cfg.Replay.Rate, cfg.Replay.Burst)
	return stream.Replay(ctx, src, engine, limiter, fn)
}
