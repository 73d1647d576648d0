package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

func TestAppendEntries_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []queue.Entry{
		{RecordID: 1, Cause: "Item Status Changed", Priority: 5, EnqueuedAt: at},
		{RecordID: 2, Cause: "Order Changed, Reserve List Changed", Priority: 5, EnqueuedAt: at.Add(time.Second)},
	}
	require.NoError(t, s.AppendEntries(ctx, queue.Availability, entries))

	got, err := s.ReadEntries(ctx, queue.Availability)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, change.RecordID(1), got[0].RecordID)
	assert.Equal(t, "Item Status Changed", got[0].Cause)
	assert.Equal(t, 5, got[0].Priority)
	assert.True(t, got[0].EnqueuedAt.Equal(at))
	assert.Equal(t, "Order Changed, Reserve List Changed", got[1].Cause)
}

func TestAppendEntries_QueuesAreSeparate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	e := queue.Entry{RecordID: 9, Cause: "Bib Delete", EnqueuedAt: time.Now()}

	require.NoError(t, s.AppendEntries(ctx, queue.Deletion, []queue.Entry{e}))

	for _, q := range queue.Names {
		n, err := s.CountEntries(ctx, q)
		require.NoError(t, err)
		if q == queue.Deletion {
			assert.Equal(t, 1, n)
		} else {
			assert.Zero(t, n, "queue %s", q)
		}
	}
}

func TestAppendEntries_AllowsDuplicates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	e := queue.Entry{RecordID: 3, Cause: "Order Changed", EnqueuedAt: time.Now()}

	require.NoError(t, s.AppendEntries(ctx, queue.Generation, []queue.Entry{e}))
	require.NoError(t, s.AppendEntries(ctx, queue.Generation, []queue.Entry{e}))

	n, err := s.CountEntries(ctx, queue.Generation)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAppendEntries_Empty(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.AppendEntries(context.Background(), queue.Generation, nil))

	n, err := s.CountEntries(context.Background(), queue.Generation)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAppendEntries_UnknownQueue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.AppendEntries(ctx, queue.Name("bogus"), []queue.Entry{{RecordID: 1}})
	assert.Error(t, err)

	_, err = s.ReadEntries(ctx, queue.Name("bogus"))
	assert.Error(t, err)

	_, err = s.CountEntries(ctx, queue.Name("bogus"))
	assert.Error(t, err)
}

func TestAppendEntries_CanceledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.AppendEntries(ctx, queue.Generation, []queue.Entry{{RecordID: 1, EnqueuedAt: time.Now()}})
	require.Error(t, err)

	n, err := s.CountEntries(context.Background(), queue.Generation)
	require.NoError(t, err)
	assert.Zero(t, n)
}
