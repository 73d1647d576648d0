package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/ilsfeed/internal/source"
)

//go:embed schema.cue
var schemaCUE string

// view is the shape the CUE schema constrains. Durations are flattened to
// nanoseconds.
type view struct {
	State struct {
		Driver   string `json:"driver"`
		DSN      string `json:"dsn"`
		Schema   string `json:"schema"`
		MaxConns int    `json:"max_conns"`
	} `json:"state"`
	Source struct {
		DSN        string   `json:"dsn"`
		MaxConns   int      `json:"max_conns"`
		ViaBouncer bool     `json:"via_bouncer"`
		Enabled    []string `json:"enabled"`
	} `json:"source"`
	Aggregator struct {
		Interval     int64  `json:"interval"`
		SafetyMargin int64  `json:"safety_margin"`
		Lookback     int64  `json:"lookback"`
		BatchSize    int    `json:"batch_size"`
		Priority     int    `json:"priority"`
		Watermark    string `json:"watermark"`
	} `json:"aggregator"`
	Router struct {
		Interval       int64  `json:"interval"`
		Lookback       int64  `json:"lookback"`
		FlushThreshold int    `json:"flush_threshold"`
		Watermark      string `json:"watermark"`
	} `json:"router"`
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
	MetricsAddr string `json:"metrics_addr"`
}

func (c *Config) view() view {
	var v view
	v.State.Driver = c.State.Driver
	v.State.DSN = c.State.DSN
	v.State.Schema = c.State.Schema
	v.State.MaxConns = c.State.MaxConns
	v.Source.DSN = c.Source.DSN
	v.Source.MaxConns = c.Source.MaxConns
	v.Source.ViaBouncer = c.Source.ViaBouncer
	v.Source.Enabled = append([]string{}, c.Source.Enabled...)
	v.Aggregator.Interval = int64(c.Aggregator.Interval)
	v.Aggregator.SafetyMargin = int64(c.Aggregator.SafetyMargin)
	v.Aggregator.Lookback = int64(c.Aggregator.Lookback)
	v.Aggregator.BatchSize = c.Aggregator.BatchSize
	v.Aggregator.Priority = c.Aggregator.Priority
	v.Aggregator.Watermark = c.Aggregator.Watermark
	v.Router.Interval = int64(c.Router.Interval)
	v.Router.Lookback = int64(c.Router.Lookback)
	v.Router.FlushThreshold = c.Router.FlushThreshold
	v.Router.Watermark = c.Router.Watermark
	v.Log.Level = c.Log.Level
	v.Log.Format = c.Log.Format
	v.MetricsAddr = c.MetricsAddr
	return v
}

// Validate checks c against the schema and the cross-field rules the
// schema cannot express.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	val := schema.Unify(ctx.Encode(c.view()))
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}

	for _, name := range c.Source.Enabled {
		if _, err := source.ByName(name); err != nil {
			return &Error{
				Field:   "source.enabled",
				Message: fmt.Sprintf("unknown source %q (want one of %s)", name, strings.Join(source.Names(), ", ")),
			}
		}
	}
	if c.Aggregator.Watermark == c.Router.Watermark {
		return &Error{
			Field:   "router.watermark",
			Message: fmt.Sprintf("must differ from aggregator.watermark (both %q)", c.Router.Watermark),
		}
	}
	return nil
}

// formatCUEError turns the first CUE validation error into an *Error
// naming the offending field.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &Error{
		Field:   strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}
