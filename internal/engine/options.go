package engine

import (
	"log/slog"
	"time"

	"github.com/juju/clock"
)

// Loop defaults.
const (
	DefaultAggregatorInterval = time.Second
	DefaultRouterInterval     = time.Second
	DefaultSafetyMargin       = 10 * time.Second
	DefaultFlushThreshold     = 1000

	AggregatorWatermark = "avail"
	RouterWatermark     = "queue"
)

// options holds settings shared by Aggregator and Router. Settings that
// only one loop uses are ignored by the other.
type options struct {
	clock          clock.Clock
	logger         *slog.Logger
	metrics        *Metrics
	ids            CycleIDGenerator
	interval       time.Duration
	lookback       time.Duration
	watermark      string
	safetyMargin   time.Duration
	flushThreshold int
}

// Option configures an Aggregator or Router.
type Option func(*options)

// WithClock sets the time source. Default: clock.WallClock.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collectors. Default: unregistered collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithIDGenerator sets the cycle id generator. Default: UUIDv7Generator.
func WithIDGenerator(g CycleIDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithInterval sets the delay between cycles used by Run.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithLookback sets how far back the first cycle starts when no
// watermark is stored. Default: DefaultLookback.
func WithLookback(d time.Duration) Option {
	return func(o *options) { o.lookback = d }
}

// WithWatermarkName overrides the loop's watermark key.
func WithWatermarkName(name string) Option {
	return func(o *options) { o.watermark = name }
}

// WithSafetyMargin sets how far behind now the aggregator's next watermark
// lags. Aggregator only.
func WithSafetyMargin(d time.Duration) Option {
	return func(o *options) { o.safetyMargin = d }
}

// WithFlushThreshold sets the router's buffered-row flush threshold.
// Router only.
func WithFlushThreshold(n int) Option {
	return func(o *options) { o.flushThreshold = n }
}

func buildOptions(interval time.Duration, watermark string, opts []Option) options {
	o := options{
		clock:          clock.WallClock,
		logger:         slog.Default(),
		ids:            UUIDv7Generator{},
		interval:       interval,
		lookback:       DefaultLookback,
		watermark:      watermark,
		safetyMargin:   DefaultSafetyMargin,
		flushThreshold: DefaultFlushThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	return o
}
