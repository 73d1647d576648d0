package queue

import (
	"context"
	"fmt"
)

// FlushFunc persists one batch of entries to a queue.
type FlushFunc func(ctx context.Context, q Name, entries []Entry) error

// Batcher buffers entries across queues and flushes them whenever the
// buffered count reaches the threshold. Callers must call Flush once at the
// end so a partially filled batch is never lost.
//
// Not goroutine-safe; each loop owns its batcher.
type Batcher struct {
	threshold int
	flush     FlushFunc
	pending   map[Name][]Entry
	count     int
	written   map[Name]int
}

// NewBatcher creates a batcher. A threshold below 1 is treated as 1.
func NewBatcher(threshold int, flush FlushFunc) *Batcher {
	if threshold < 1 {
		threshold = 1
	}
	return &Batcher{
		threshold: threshold,
		flush:     flush,
		pending:   make(map[Name][]Entry),
		written:   make(map[Name]int),
	}
}

// Add buffers e for queue q, flushing if the threshold is reached.
func (b *Batcher) Add(ctx context.Context, q Name, e Entry) error {
	if !q.Valid() {
		return fmt.Errorf("add to batch: unknown queue %q", q)
	}
	b.pending[q] = append(b.pending[q], e)
	b.count++
	if b.count >= b.threshold {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes every buffered entry. On error the failed queue's entries
// stay buffered.
func (b *Batcher) Flush(ctx context.Context) error {
	for _, q := range Names {
		entries := b.pending[q]
		if len(entries) == 0 {
			continue
		}
		if err := b.flush(ctx, q, entries); err != nil {
			return fmt.Errorf("flush %s queue: %w", q, err)
		}
		b.written[q] += len(entries)
		b.count -= len(entries)
		delete(b.pending, q)
	}
	return nil
}

// Pending returns the number of buffered entries.
func (b *Batcher) Pending() int { return b.count }

// Written returns how many entries have been flushed to q.
func (b *Batcher) Written(q Name) int { return b.written[q] }

// WrittenTotal returns how many entries have been flushed across queues.
func (b *Batcher) WrittenTotal() int {
	n := 0
	for _, w := range b.written {
		n += w
	}
	return n
}
