package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRows_ScanConverts(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := NewFakeRows([]any{int64(42), ts}, []any{7, ts})

	var got []int64
	for rows.Next() {
		var id int64
		var at time.Time
		require.NoError(t, rows.Scan(&id, &at))
		assert.Equal(t, ts, at)
		got = append(got, id)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int64{42, 7}, got)
	assert.True(t, rows.Closed())
}

func TestFakeRows_ScanErr(t *testing.T) {
	boom := errors.New("boom")
	rows := NewFakeRows([]any{int64(1)}, []any{int64(2)}).WithScanErr(1, boom)

	var id int64
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(&id))
	require.True(t, rows.Next())
	assert.ErrorIs(t, rows.Scan(&id), boom)
}

func TestFakeRows_IterErrAfterExhaustion(t *testing.T) {
	boom := errors.New("conn reset")
	rows := NewFakeRows([]any{int64(1)}).WithIterErr(boom)

	for rows.Next() {
	}

	assert.ErrorIs(t, rows.Err(), boom)
}

func TestFakeQuerier_RecordsQueries(t *testing.T) {
	q := &FakeQuerier{}

	rows, err := q.Query(context.Background(), "SELECT 1", 5)
	require.NoError(t, err)
	rows.Close()

	assert.Equal(t, []string{"SELECT 1"}, q.Queries)
	assert.Equal(t, [][]any{{5}}, q.Args)
}
