package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("", noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FullFile(t *testing.T) {
	cfg, err := Load("testdata/full.yaml", noEnv)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.State.Driver)
	assert.Equal(t, "ilsfeed", cfg.State.Schema)
	assert.Equal(t, 3, cfg.State.MaxConns)
	assert.True(t, cfg.Source.ViaBouncer)
	assert.Equal(t, []string{"item-status", "orders"}, cfg.Source.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Aggregator.Interval.Std())
	assert.Equal(t, 15*time.Second, cfg.Aggregator.SafetyMargin.Std())
	assert.Equal(t, time.Hour, cfg.Aggregator.Lookback.Std())
	assert.Equal(t, 50, cfg.Aggregator.BatchSize)
	assert.Equal(t, 4, cfg.Aggregator.Priority)
	assert.Equal(t, 500*time.Millisecond, cfg.Router.Interval.Std())
	assert.Equal(t, 250, cfg.Router.FlushThreshold)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9108", cfg.MetricsAddr)

	// Unset keys keep their defaults.
	assert.Equal(t, "avail", cfg.Aggregator.Watermark)
	assert.Equal(t, 10*time.Hour, cfg.Router.Lookback.Std())
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path, noEnv)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load("testdata/typo.yaml", noEnv)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "safty_margin")
}

func TestLoad_BadDuration(t *testing.T) {
	_, err := Load("testdata/bad_duration.yaml", noEnv)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml", noEnv)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoad_EnvOverrides(t *testing.T) {
	cfg, err := Load("testdata/full.yaml", envOf(map[string]string{
		"ILSFEED_STATE_DRIVER": "sqlite",
		"ILSFEED_STATE_DSN":    "/var/lib/ilsfeed/state.db",
		"ILSFEED_SOURCE_DSN":   "postgres://other",
		"ILSFEED_METRICS_ADDR": "  ",
		"ILSFEED_LOG_LEVEL":    "warn",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.State.Driver)
	assert.Equal(t, "/var/lib/ilsfeed/state.db", cfg.State.DSN)
	assert.Equal(t, "postgres://other", cfg.Source.DSN)
	assert.Equal(t, ":9108", cfg.MetricsAddr, "blank env value is ignored")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad driver", func(c *Config) { c.State.Driver = "mysql" }, "state.driver"},
		{"empty state dsn", func(c *Config) { c.State.DSN = "" }, "state.dsn"},
		{"bad schema name", func(c *Config) { c.State.Schema = "ils feed" }, "state.schema"},
		{"zero source conns", func(c *Config) { c.Source.MaxConns = 0 }, "source.max_conns"},
		{"zero interval", func(c *Config) { c.Aggregator.Interval = 0 }, "aggregator.interval"},
		{"negative margin", func(c *Config) { c.Aggregator.SafetyMargin = Duration(-time.Second) }, "aggregator.safety_margin"},
		{"zero batch", func(c *Config) { c.Aggregator.BatchSize = 0 }, "aggregator.batch_size"},
		{"priority too high", func(c *Config) { c.Aggregator.Priority = 10 }, "aggregator.priority"},
		{"zero threshold", func(c *Config) { c.Router.FlushThreshold = 0 }, "router.flush_threshold"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var ce *Error
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidate_UnknownSource(t *testing.T) {
	cfg := Default()
	cfg.Source.Enabled = []string{"orders", "fines"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source "fines"`)
}

func TestValidate_WatermarksMustDiffer(t *testing.T) {
	cfg := Default()
	cfg.Router.Watermark = cfg.Aggregator.Watermark

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestRequireSource(t *testing.T) {
	cfg := Default()
	err := cfg.RequireSource()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.dsn")

	cfg.Source.DSN = "postgres://x"
	assert.NoError(t, cfg.RequireSource())
}

func TestError_Format(t *testing.T) {
	assert.Equal(t, "config: state.dsn: required", (&Error{Field: "state.dsn", Message: "required"}).Error())
	assert.Equal(t, "config: boom", (&Error{Message: "boom"}).Error())
}
