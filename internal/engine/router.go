package engine

import (
	"context"
	"time"

	"github.com/roach88/ilsfeed/internal/queue"
)

// PassResult describes one router pass.
type PassResult struct {
	ID        string             `json:"id"`
	Since     time.Time          `json:"since"`
	PassStart time.Time          `json:"pass_start"`
	Read      int                `json:"read"`
	Skipped   int                `json:"skipped"`
	Routed    map[queue.Name]int `json:"routed"`
}

// Router is the queue routing loop. Each pass reads done-queue entries
// newer than its watermark, classifies them by cause and appends them to
// the matching downstream queue.
//
// Thread-safety: Step and Run must be called from one goroutine.
type Router struct {
	upstream UpstreamReader
	sink     QueueSink
	opts     options
	cursor   cursor
}

// NewRouter creates a router reading from upstream and writing to sink.
func NewRouter(upstream UpstreamReader, sink QueueSink, marks WatermarkStore, opts ...Option) *Router {
	o := buildOptions(DefaultRouterInterval, RouterWatermark, opts)
	return &Router{
		upstream: upstream,
		sink:     sink,
		opts:     o,
		cursor:   cursor{name: o.watermark, store: marks, lookback: o.lookback},
	}
}

// Watermark returns the in-memory watermark and whether it has been loaded.
func (r *Router) Watermark() (time.Time, bool) {
	return r.cursor.value, r.cursor.loaded
}

// Step runs one pass. The watermark advances to the time the pass started
// only after every entry was flushed.
func (r *Router) Step(ctx context.Context) (PassResult, error) {
	res := PassResult{ID: r.opts.ids.Generate(), Routed: make(map[queue.Name]int)}
	logger := r.opts.logger.With("loop", "router", "cycle", res.ID)

	passStart := r.opts.clock.Now().UTC()
	res.PassStart = passStart

	since, err := r.cursor.load(ctx, passStart, logger)
	if err != nil {
		return r.fail(res, err)
	}
	res.Since = since

	done, err := r.upstream.ReadDone(ctx, since)
	if err != nil {
		return r.fail(res, NewSourceError("done_queue", err))
	}
	res.Read = len(done)

	b := queue.NewBatcher(r.opts.flushThreshold, r.sink.AppendEntries)
	for _, d := range done {
		route := queue.Classify(d.Cause)
		if route.Skip {
			res.Skipped++
			continue
		}
		e := queue.Entry{
			RecordID:   d.RecordID,
			Cause:      d.Cause,
			Priority:   route.Priority,
			EnqueuedAt: d.DoneAt,
		}
		if err := b.Add(ctx, route.Queue, e); err != nil {
			return r.fail(res, NewWriteError("router batch", err))
		}
	}
	if err := b.Flush(ctx); err != nil {
		return r.fail(res, NewWriteError("router batch", err))
	}
	for _, q := range queue.Names {
		if n := b.Written(q); n > 0 {
			res.Routed[q] = n
			r.opts.metrics.EntriesWritten.WithLabelValues(string(q)).Add(float64(n))
		}
	}
	r.opts.metrics.EntriesSkipped.Add(float64(res.Skipped))

	if err := r.cursor.advance(ctx, passStart); err != nil {
		return r.fail(res, err)
	}

	r.opts.metrics.Cycles.WithLabelValues("router", resultOK).Inc()
	r.opts.metrics.Watermark.WithLabelValues("router").Set(float64(passStart.Unix()))
	logger.Info("router pass complete",
		"since", since,
		"watermark", passStart,
		"read", res.Read,
		"skipped", res.Skipped,
		"routed", b.WrittenTotal(),
		"generation", res.Routed[queue.Generation],
		"deletion", res.Routed[queue.Deletion],
		"availability", res.Routed[queue.Availability])
	return res, nil
}

func (r *Router) fail(res PassResult, err error) (PassResult, error) {
	r.opts.metrics.Cycles.WithLabelValues("router", resultFailed).Inc()
	return res, err
}

// Run repeats Step with the configured interval until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	r.opts.logger.Info("router starting",
		"interval", r.opts.interval,
		"flush_threshold", r.opts.flushThreshold)
	err := RepeatWithFixedDelay(ctx, r.opts.clock, r.opts.interval,
		func(ctx context.Context) error {
			_, err := r.Step(ctx)
			return err
		},
		func(err error) {
			r.opts.logger.Error("router pass failed", "error", err)
		})
	r.opts.logger.Info("router stopping")
	return err
}
