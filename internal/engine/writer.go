package engine

import (
	"context"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

// Defaults for NotificationWriter.
const (
	DefaultWriteBatchSize       = 100
	DefaultAvailabilityPriority = 5
)

// NotificationWriter turns a net-new change set into availability queue
// rows, one per record.
type NotificationWriter struct {
	sink      QueueSink
	batchSize int
	priority  int
	metrics   *Metrics
}

// WriterOption configures a NotificationWriter.
type WriterOption func(*NotificationWriter)

// WithBatchSize sets how many rows go into one AppendEntries call.
func WithBatchSize(n int) WriterOption {
	return func(w *NotificationWriter) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithPriority sets the priority written on every row.
func WithPriority(p int) WriterOption {
	return func(w *NotificationWriter) { w.priority = p }
}

// WithWriterMetrics records written rows in m.
func WithWriterMetrics(m *Metrics) WriterOption {
	return func(w *NotificationWriter) { w.metrics = m }
}

// NewNotificationWriter creates a writer appending to sink.
func NewNotificationWriter(sink QueueSink, opts ...WriterOption) *NotificationWriter {
	w := &NotificationWriter{
		sink:      sink,
		batchSize: DefaultWriteBatchSize,
		priority:  DefaultAvailabilityPriority,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.metrics == nil {
		w.metrics = NewMetrics(nil)
	}
	return w
}

// Entries builds the rows Write would append, ordered by record id. Each
// row carries the record's earliest observation time and its sorted cause
// summary.
func (w *NotificationWriter) Entries(netNew change.ChangeSet) []queue.Entry {
	ids := netNew.Records()
	out := make([]queue.Entry, 0, len(ids))
	for _, id := range ids {
		cs := netNew[id]
		if len(cs) == 0 {
			continue
		}
		out = append(out, queue.Entry{
			RecordID:   id,
			Cause:      change.Summary(cs),
			Priority:   w.priority,
			EnqueuedAt: change.Earliest(cs),
		})
	}
	return out
}

// Write appends one availability row per record in netNew, in batches of
// the configured size. The final partial batch is always written. Returns
// the number of rows written before any failure.
func (w *NotificationWriter) Write(ctx context.Context, netNew change.ChangeSet) (int, error) {
	entries := w.Entries(netNew)
	written := 0
	for i := 0; i < len(entries); i += w.batchSize {
		j := min(i+w.batchSize, len(entries))
		if err := w.sink.AppendEntries(ctx, queue.Availability, entries[i:j]); err != nil {
			return written, NewWriteError(queue.Availability.Table(), err)
		}
		written += j - i
		w.metrics.EntriesWritten.WithLabelValues(string(queue.Availability)).Add(float64(j - i))
	}
	return written, nil
}
