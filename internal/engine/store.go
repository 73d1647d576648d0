package engine

import (
	"context"
	"time"

	"github.com/roach88/ilsfeed/internal/queue"
)

// WatermarkStore persists one named timestamp per loop.
// Implemented by store.Store (SQLite) and pgstore.Store (PostgreSQL).
type WatermarkStore interface {
	GetWatermark(ctx context.Context, name string) (time.Time, bool, error)
	SetWatermark(ctx context.Context, name string, ts time.Time) error
}

// QueueSink appends entries to a downstream queue.
type QueueSink interface {
	AppendEntries(ctx context.Context, q queue.Name, entries []queue.Entry) error
}

// UpstreamReader reads the indexer's done queue.
type UpstreamReader interface {
	ReadDone(ctx context.Context, since time.Time) ([]queue.DoneEntry, error)
}

// StateStore is everything both loops need from a single backend.
type StateStore interface {
	WatermarkStore
	QueueSink
	UpstreamReader
}
