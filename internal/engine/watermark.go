package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultLookback is how far back a loop starts when its watermark has
// never been persisted.
const DefaultLookback = 10 * time.Hour

// cursor is a loop's view of its persisted watermark. The in-memory value
// only moves after the store accepted it.
type cursor struct {
	name     string
	store    WatermarkStore
	lookback time.Duration

	value  time.Time
	loaded bool
}

// load returns the current watermark, reading it from the store on first
// use. An absent watermark defaults to now minus the lookback.
func (c *cursor) load(ctx context.Context, now time.Time, logger *slog.Logger) (time.Time, error) {
	if c.loaded {
		return c.value, nil
	}
	ts, ok, err := c.store.GetWatermark(ctx, c.name)
	if err != nil {
		return time.Time{}, NewWatermarkError(c.name, err)
	}
	if !ok {
		ts = now.Add(-c.lookback)
		logger.Warn("no stored watermark, using default",
			"watermark", c.name,
			"lookback", c.lookback,
			"value", ts)
	}
	c.value = ts.UTC()
	c.loaded = true
	return c.value, nil
}

// advance persists ts and, on success, makes it the current value.
func (c *cursor) advance(ctx context.Context, ts time.Time) error {
	if err := c.store.SetWatermark(ctx, c.name, ts); err != nil {
		return NewWatermarkError(c.name, err)
	}
	c.value = ts.UTC()
	return nil
}
