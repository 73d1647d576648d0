package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

func changeSetOf(n int) change.ChangeSet {
	cs := change.ChangeSet{}
	for i := 1; i <= n; i++ {
		cs.Add(change.RecordID(i), change.Change{Cause: change.CauseOrder, ObservedAt: t0})
	}
	return cs
}

func TestNotificationWriter_Entries(t *testing.T) {
	w := NewNotificationWriter(nil, WithPriority(3))
	cs := change.ChangeSet{}
	cs.Add(20, change.Change{Cause: change.CauseReserve, ObservedAt: t0.Add(time.Minute)})
	cs.Add(20, change.Change{Cause: change.CauseItemRecord, ObservedAt: t0})
	cs.Add(10, change.Change{Cause: change.CauseSerialIssue, ObservedAt: t0})

	entries := w.Entries(cs)
	require.Len(t, entries, 2)

	assert.Equal(t, queue.Entry{
		RecordID: 10, Cause: "Serial Issue Checked In", Priority: 3, EnqueuedAt: t0,
	}, entries[0])
	assert.Equal(t, queue.Entry{
		RecordID: 20, Cause: "Item Record Updated, Reserve List Changed", Priority: 3, EnqueuedAt: t0,
	}, entries[1])
}

func TestNotificationWriter_BatchFlushCompleteness(t *testing.T) {
	for _, tc := range []struct{ n, batch int }{
		{1, 100}, {99, 100}, {100, 100}, {101, 100}, {250, 100}, {7, 3}, {9, 3},
	} {
		t.Run(fmt.Sprintf("n=%d/batch=%d", tc.n, tc.batch), func(t *testing.T) {
			st := &flakyStore{Store: setupTestStore(t)}
			m := NewMetrics(nil)
			w := NewNotificationWriter(st, WithBatchSize(tc.batch), WithWriterMetrics(m))

			written, err := w.Write(context.Background(), changeSetOf(tc.n))
			require.NoError(t, err)
			assert.Equal(t, tc.n, written)

			n, err := st.CountEntries(context.Background(), queue.Availability)
			require.NoError(t, err)
			assert.Equal(t, tc.n, n)

			sizes := st.appendSizes()
			assert.Len(t, sizes, (tc.n+tc.batch-1)/tc.batch)
			for _, s := range sizes {
				assert.LessOrEqual(t, s, tc.batch)
			}
			assert.Equal(t, float64(tc.n), promtest.ToFloat64(m.EntriesWritten.WithLabelValues("availability")))
		})
	}
}

func TestNotificationWriter_EmptySetWritesNothing(t *testing.T) {
	st := &flakyStore{Store: setupTestStore(t)}
	w := NewNotificationWriter(st)

	n, err := w.Write(context.Background(), change.ChangeSet{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, st.appendSizes())
}

func TestNotificationWriter_FailureReportsWriteFailure(t *testing.T) {
	st := &flakyStore{Store: setupTestStore(t), failAppend: 1}
	w := NewNotificationWriter(st, WithBatchSize(2))

	n, err := w.Write(context.Background(), changeSetOf(5))
	require.Error(t, err)
	assert.True(t, IsWriteFailure(err))
	assert.Zero(t, n)
}

func TestNotificationWriter_Defaults(t *testing.T) {
	w := NewNotificationWriter(nil, WithBatchSize(0))
	assert.Equal(t, DefaultWriteBatchSize, w.batchSize)
	assert.Equal(t, DefaultAvailabilityPriority, w.priority)
}
