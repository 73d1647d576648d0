package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/source"
)

// CycleResult describes one aggregator cycle.
type CycleResult struct {
	ID         string           `json:"id"`
	Since      time.Time        `json:"since"`
	Next       time.Time        `json:"next"`
	Polled     int              `json:"polled"`
	Suppressed int              `json:"suppressed"`
	NetNew     change.ChangeSet `json:"net_new"`
	Written    int              `json:"written"`
}

// Aggregator is the change-detection loop.
//
// Each cycle polls every source since the watermark W in parallel, unions
// the results into the full-window set, removes what the previous cycle
// already saw, writes the remainder and advances W to now minus the safety
// margin.
//
// Thread-safety: Step and Run must be called from one goroutine.
type Aggregator struct {
	sources []source.Source
	querier source.Querier
	writer  *NotificationWriter
	opts    options
	cursor  cursor

	// prev is the previous successful cycle's full-window set.
	prev change.ChangeSet
}

// NewAggregator creates an aggregator polling sources through q and
// writing net-new changes with w. The watermark is read from marks on the
// first Step.
func NewAggregator(sources []source.Source, q source.Querier, w *NotificationWriter, marks WatermarkStore, opts ...Option) *Aggregator {
	o := buildOptions(DefaultAggregatorInterval, AggregatorWatermark, opts)
	srcs := make([]source.Source, len(sources))
	copy(srcs, sources)
	return &Aggregator{
		sources: srcs,
		querier: q,
		writer:  w,
		opts:    o,
		cursor:  cursor{name: o.watermark, store: marks, lookback: o.lookback},
		prev:    change.ChangeSet{},
	}
}

// Watermark returns the in-memory watermark and whether it has been loaded.
func (a *Aggregator) Watermark() (time.Time, bool) {
	return a.cursor.value, a.cursor.loaded
}

// Step runs one cycle. On error nothing observable changed except, for a
// failed watermark persist, the previous-cycle set.
func (a *Aggregator) Step(ctx context.Context) (CycleResult, error) {
	res := CycleResult{ID: a.opts.ids.Generate()}
	logger := a.opts.logger.With("loop", "aggregator", "cycle", res.ID)

	res, err := a.step(ctx, res, logger)
	if err != nil {
		a.opts.metrics.Cycles.WithLabelValues("aggregator", resultFailed).Inc()
		return res, err
	}
	a.opts.metrics.Cycles.WithLabelValues("aggregator", resultOK).Inc()
	a.opts.metrics.Watermark.WithLabelValues("aggregator").Set(float64(res.Next.Unix()))
	logger.Info("aggregator cycle complete",
		"since", res.Since,
		"watermark", res.Next,
		"polled", res.Polled,
		"suppressed", res.Suppressed,
		"notified", res.Written)
	return res, nil
}

func (a *Aggregator) step(ctx context.Context, res CycleResult, logger *slog.Logger) (CycleResult, error) {
	now := a.opts.clock.Now().UTC()
	since, err := a.cursor.load(ctx, now, logger)
	if err != nil {
		return res, err
	}
	res.Since = since

	next := now.Add(-a.opts.safetyMargin)
	if next.Before(since) {
		next = since
	}
	res.Next = next

	curr, err := a.poll(ctx, since)
	if err != nil {
		return res, err
	}
	res.Polled = curr.Len()

	netNew := change.EliminateCarryovers(curr, a.prev)
	res.NetNew = netNew
	res.Suppressed = curr.Len() - netNew.Len()
	a.opts.metrics.CarryoversSuppressed.Add(float64(res.Suppressed))

	if len(netNew) > 0 {
		n, err := a.writer.Write(ctx, netNew)
		res.Written = n
		if err != nil {
			if n > 0 {
				logger.Warn("partial notification write, rows will be re-sent", "written", n)
			}
			return res, err
		}
	}

	a.prev = curr

	if err := a.cursor.advance(ctx, next); err != nil {
		return res, err
	}
	return res, nil
}

// poll invokes every source concurrently with the same since and unions
// the results. The first failure cancels the remaining sources.
func (a *Aggregator) poll(ctx context.Context, since time.Time) (change.ChangeSet, error) {
	results := make([]change.ChangeSet, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			start := time.Now()
			cs, err := src.Detect(gctx, a.querier, since)
			a.opts.metrics.SourceLatency.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				return NewSourceError(src.Name(), err)
			}
			results[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	curr := change.ChangeSet{}
	for _, cs := range results {
		curr.Merge(cs)
	}
	return curr, nil
}

// Run repeats Step with the configured interval until ctx is done.
// Cycle errors are logged and retried on the next cycle.
func (a *Aggregator) Run(ctx context.Context) error {
	a.opts.logger.Info("aggregator starting",
		"sources", len(a.sources),
		"interval", a.opts.interval,
		"safety_margin", a.opts.safetyMargin)
	err := RepeatWithFixedDelay(ctx, a.opts.clock, a.opts.interval,
		func(ctx context.Context) error {
			_, err := a.Step(ctx)
			return err
		},
		func(err error) {
			a.opts.logger.Error("aggregator cycle failed", "error", err)
		})
	a.opts.logger.Info("aggregator stopping")
	return err
}
