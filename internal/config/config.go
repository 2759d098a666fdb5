package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/tickgate/internal/rules"
	"github.com/sawpanic/tickgate/internal/tick"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Environment overrides applied after the file is read
const (
	EnvLogLevel    = "TICKGATE_LOG_LEVEL"
	EnvMonitorPort = "TICKGATE_MONITOR_PORT"
)

// Config is the top-level tickgate configuration
type Config struct {
	Rules   RulesConfig   `yaml:"rules"`
	Logging LoggingConfig `yaml:"logging"`
	Monitor MonitorConfig `yaml:"monitor"`
	Replay  ReplayConfig  `yaml:"replay"`
}

// RulesConfig holds the validation thresholds
type RulesConfig struct {
	MaxPrice           string        `yaml:"max_price"`           // decimal, upper price bound (1000000)
	MovementThreshold  string        `yaml:"movement_threshold"`  // decimal fraction (0.30)
	StalenessThreshold time.Duration `yaml:"staleness_threshold"` // 2m
	FutureTolerance    time.Duration `yaml:"future_tolerance"`    // 5s clock skew
	MaxSymbolLength    int           `yaml:"max_symbol_length"`   // 10
	PriceScale         int32         `yaml:"price_scale"`         // 4 fractional digits
}

// LoggingConfig controls zerolog output
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MonitorConfig configures the read-only HTTP monitor
type MonitorConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ReplayConfig throttles stream replay; Rate <= 0 means unthrottled
type ReplayConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Rules: RulesConfig{
			MaxPrice:           "1000000",
			MovementThreshold:  "0.30",
			StalenessThreshold: 2 * time.Minute,
			FutureTolerance:    5 * time.Second,
			MaxSymbolLength:    10,
			PriceScale:         4,
		},
		Logging: LoggingConfig{Level: "info"},
		Monitor: MonitorConfig{Host: "127.0.0.1", Port: 8080},
		Replay:  ReplayConfig{Rate: 0, Burst: 1},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides
// and validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg as YAML
func Save(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Logging.Level = lvl
	}
	if portStr := os.Getenv(EnvMonitorPort); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalidConfig, EnvMonitorPort, portStr)
		}
		c.Monitor.Port = p
	}
	return nil
}

// Validate checks every section
func (c Config) Validate() error {
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if _, err := c.Logging.ZerologLevel(); err != nil {
		return err
	}
	if c.Monitor.Port <= 0 || c.Monitor.Port > 65535 {
		return fmt.Errorf("%w: monitor.port %d out of range", ErrInvalidConfig, c.Monitor.Port)
	}
	if c.Replay.Rate < 0 {
		return fmt.Errorf("%w: replay.rate must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks that every threshold is usable
func (r RulesConfig) Validate() error {
	maxPrice, err := decimal.NewFromString(r.MaxPrice)
	if err != nil {
		return fmt.Errorf("%w: rules.max_price %q: %v", ErrInvalidConfig, r.MaxPrice, err)
	}
	if !maxPrice.IsPositive() {
		return fmt.Errorf("%w: rules.max_price must be positive", ErrInvalidConfig)
	}

	movement, err := decimal.NewFromString(r.MovementThreshold)
	if err != nil {
		return fmt.Errorf("%w: rules.movement_threshold %q: %v", ErrInvalidConfig, r.MovementThreshold, err)
	}
	if !movement.IsPositive() {
		return fmt.Errorf("%w: rules.movement_threshold must be positive", ErrInvalidConfig)
	}

	if r.StalenessThreshold <= 0 {
		return fmt.Errorf("%w: rules.staleness_threshold must be positive", ErrInvalidConfig)
	}
	if r.FutureTolerance < 0 {
		return fmt.Errorf("%w: rules.future_tolerance must not be negative", ErrInvalidConfig)
	}
	if r.MaxSymbolLength <= 0 {
		return fmt.Errorf("%w: rules.max_symbol_length must be positive", ErrInvalidConfig)
	}
	if r.PriceScale < 0 {
		return fmt.Errorf("%w: rules.price_scale must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Thresholds converts the section into rule thresholds
func (r RulesConfig) Thresholds() (rules.Thresholds, error) {
	maxPrice, err := decimal.NewFromString(r.MaxPrice)
	if err != nil {
		return rules.Thresholds{}, fmt.Errorf("%w: rules.max_price: %v", ErrInvalidConfig, err)
	}
	movement, err := decimal.NewFromString(r.MovementThreshold)
	if err != nil {
		return rules.Thresholds{}, fmt.Errorf("%w: rules.movement_threshold: %v", ErrInvalidConfig, err)
	}
	return rules.Thresholds{
		MaxPrice:           maxPrice,
		MovementThreshold:  movement,
		StalenessThreshold: r.StalenessThreshold,
		FutureTolerance:    r.FutureTolerance,
	}, nil
}

// ParseOptions converts the section into schema limits
func (r RulesConfig) ParseOptions() tick.ParseOptions {
	return tick.ParseOptions{
		MaxSymbolLength: r.MaxSymbolLength,
		PriceScale:      r.PriceScale,
	}
}

// ZerologLevel parses the configured level
func (l LoggingConfig) ZerologLevel() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: logging.level %q", ErrInvalidConfig, l.Level)
	}
	return lvl, nil
}

// Addr returns host:port for the monitor listener
func (m MonitorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}
