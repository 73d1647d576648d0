package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilsfeed/internal/change"
)

type recordingSink struct {
	batches map[Name][][]Entry
	failOn  Name
}

func (r *recordingSink) flush(_ context.Context, q Name, entries []Entry) error {
	if q == r.failOn {
		return errors.New("sink down")
	}
	if r.batches == nil {
		r.batches = make(map[Name][][]Entry)
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	r.batches[q] = append(r.batches[q], cp)
	return nil
}

func (r *recordingSink) total() int {
	n := 0
	for _, bs := range r.batches {
		for _, b := range bs {
			n += len(b)
		}
	}
	return n
}

func TestBatcher_FlushCompleteness(t *testing.T) {
	for _, tc := range []struct{ n, threshold int }{
		{0, 3}, {1, 3}, {3, 3}, {7, 3}, {9, 3}, {250, 100}, {1000, 1000}, {1001, 1000},
	} {
		t.Run(fmt.Sprintf("n=%d,b=%d", tc.n, tc.threshold), func(t *testing.T) {
			sink := &recordingSink{}
			b := NewBatcher(tc.threshold, sink.flush)
			ctx := context.Background()

			for i := 0; i < tc.n; i++ {
				q := Names[i%len(Names)]
				require.NoError(t, b.Add(ctx, q, Entry{RecordID: change.RecordID(i)}))
			}
			require.NoError(t, b.Flush(ctx))

			assert.Equal(t, tc.n, sink.total())
			assert.Equal(t, tc.n, b.WrittenTotal())
			assert.Zero(t, b.Pending())
		})
	}
}

func TestBatcher_FlushesAtThreshold(t *testing.T) {
	sink := &recordingSink{}
	b := NewBatcher(2, sink.flush)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, Generation, Entry{RecordID: 1}))
	assert.Equal(t, 0, sink.total())
	require.NoError(t, b.Add(ctx, Deletion, Entry{RecordID: 2}))
	assert.Equal(t, 2, sink.total())
	assert.Equal(t, 1, b.Written(Generation))
	assert.Equal(t, 1, b.Written(Deletion))
}

func TestBatcher_FailedFlushKeepsEntries(t *testing.T) {
	sink := &recordingSink{failOn: Availability}
	b := NewBatcher(10, sink.flush)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, Availability, Entry{RecordID: 1}))
	err := b.Flush(ctx)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "availability")
	assert.Equal(t, 1, b.Pending())
}

func TestBatcher_RejectsUnknownQueue(t *testing.T) {
	b := NewBatcher(10, (&recordingSink{}).flush)

	err := b.Add(context.Background(), Name("bogus"), Entry{})

	assert.Error(t, err)
	assert.Zero(t, b.Pending())
}
