package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilsfeed/internal/queue"
	"github.com/roach88/ilsfeed/internal/store"
	"github.com/roach88/ilsfeed/internal/testutil"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testOptions returns options giving deterministic ids, a discard logger
// and the test clock.
func testOptions(clk *testclock.Clock, extra ...Option) []Option {
	opts := []Option{
		WithClock(clk),
		WithLogger(discardLogger()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("cycle")),
	}
	return append(opts, extra...)
}

// flakyStore wraps a store and fails selected operations on demand.
type flakyStore struct {
	*store.Store

	mu            sync.Mutex
	failAppend    int // fail the next n AppendEntries calls
	failWatermark int // fail the next n SetWatermark calls
	failRead      int // fail the next n ReadDone calls
	appends       []int
}

var errInjected = errors.New("injected failure")

func (f *flakyStore) AppendEntries(ctx context.Context, q queue.Name, entries []queue.Entry) error {
	f.mu.Lock()
	if f.failAppend > 0 {
		f.failAppend--
		f.mu.Unlock()
		return errInjected
	}
	f.appends = append(f.appends, len(entries))
	f.mu.Unlock()
	return f.Store.AppendEntries(ctx, q, entries)
}

func (f *flakyStore) SetWatermark(ctx context.Context, name string, ts time.Time) error {
	f.mu.Lock()
	if f.failWatermark > 0 {
		f.failWatermark--
		f.mu.Unlock()
		return errInjected
	}
	f.mu.Unlock()
	return f.Store.SetWatermark(ctx, name, ts)
}

func (f *flakyStore) ReadDone(ctx context.Context, since time.Time) ([]queue.DoneEntry, error) {
	f.mu.Lock()
	if f.failRead > 0 {
		f.failRead--
		f.mu.Unlock()
		return nil, errInjected
	}
	f.mu.Unlock()
	return f.Store.ReadDone(ctx, since)
}

func (f *flakyStore) appendSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.appends))
	copy(out, f.appends)
	return out
}
