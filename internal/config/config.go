package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Error reports a missing or invalid setting. It is fatal at startup.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
	}
	return "config: " + e.Message
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Duration is a time.Duration written as a Go duration string in YAML
// ("1s", "10h").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"5s\"", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the resolved ilsfeed configuration.
type Config struct {
	State       StateConfig      `yaml:"state"`
	Source      SourceConfig     `yaml:"source"`
	Aggregator  AggregatorConfig `yaml:"aggregator"`
	Router      RouterConfig     `yaml:"router"`
	Log         LogConfig        `yaml:"log"`
	MetricsAddr string           `yaml:"metrics_addr"`
}

// StateConfig selects where watermarks and queues live.
type StateConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `yaml:"dsn"`
	// Schema holds the ilsfeed tables (postgres only).
	Schema   string `yaml:"schema"`
	MaxConns int    `yaml:"max_conns"`
}

// SourceConfig describes the ILS database the change sources poll.
type SourceConfig struct {
	DSN        string `yaml:"dsn"`
	MaxConns   int    `yaml:"max_conns"`
	ViaBouncer bool   `yaml:"via_bouncer"`
	// Enabled lists source names to poll; empty means all.
	Enabled []string `yaml:"enabled"`
}

// AggregatorConfig tunes the change-detection loop.
type AggregatorConfig struct {
	Interval     Duration `yaml:"interval"`
	SafetyMargin Duration `yaml:"safety_margin"`
	Lookback     Duration `yaml:"lookback"`
	BatchSize    int      `yaml:"batch_size"`
	Priority     int      `yaml:"priority"`
	Watermark    string   `yaml:"watermark"`
}

// RouterConfig tunes the queue routing loop.
type RouterConfig struct {
	Interval       Duration `yaml:"interval"`
	Lookback       Duration `yaml:"lookback"`
	FlushThreshold int      `yaml:"flush_threshold"`
	Watermark      string   `yaml:"watermark"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		State: StateConfig{
			Driver:   "sqlite",
			DSN:      "ilsfeed.db",
			Schema:   "public",
			MaxConns: 2,
		},
		Source: SourceConfig{
			MaxConns: 4,
		},
		Aggregator: AggregatorConfig{
			Interval:     Duration(time.Second),
			SafetyMargin: Duration(10 * time.Second),
			Lookback:     Duration(10 * time.Hour),
			BatchSize:    100,
			Priority:     5,
			Watermark:    "avail",
		},
		Router: RouterConfig{
			Interval:       Duration(time.Second),
			Lookback:       Duration(10 * time.Hour),
			FlushThreshold: 1000,
			Watermark:      "queue",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration from defaults, the YAML file at path
// (skipped when path is empty) and getenv, then validates it. getenv is
// usually os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("read %s: %v", path, err)}
		}
		if err := decode(data, cfg); err != nil {
			return nil, &Error{Message: fmt.Sprintf("parse %s: %v", path, err)}
		}
	}
	if getenv != nil {
		applyEnv(cfg, getenv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode strictly decodes YAML onto cfg. Keys absent from data keep their
// current values.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.State.Driver, "ILSFEED_STATE_DRIVER")
	set(&cfg.State.DSN, "ILSFEED_STATE_DSN")
	set(&cfg.Source.DSN, "ILSFEED_SOURCE_DSN")
	set(&cfg.MetricsAddr, "ILSFEED_METRICS_ADDR")
	set(&cfg.Log.Level, "ILSFEED_LOG_LEVEL")
}

// RequireSource reports an error when no source database is configured.
// Only commands that poll the ILS need one.
func (c *Config) RequireSource() error {
	if strings.TrimSpace(c.Source.DSN) == "" {
		return &Error{Field: "source.dsn", Message: "required (set it in the config file or ILSFEED_SOURCE_DSN)"}
	}
	return nil
}
