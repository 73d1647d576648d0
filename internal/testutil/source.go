package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/source"
)

// Event is one change a scripted source will report once it has happened.
type Event struct {
	Record change.RecordID
	At     time.Time
}

// ScriptedSource replays a fixed event log as a change source. An event is
// reported by Detect when since < At <= now, the same window a real source
// query covers.
type ScriptedSource struct {
	mu       sync.Mutex
	name     string
	cause    change.Cause
	clock    clock.Clock
	events   []Event
	failNext error
	calls    []time.Time
}

var _ source.Source = (*ScriptedSource)(nil)

// NewScriptedSource creates a scripted source reading time from clk.
func NewScriptedSource(name string, cause change.Cause, clk clock.Clock, events ...Event) *ScriptedSource {
	return &ScriptedSource{name: name, cause: cause, clock: clk, events: events}
}

// Name implements source.Source.
func (s *ScriptedSource) Name() string { return s.name }

// Emit appends events to the log.
func (s *ScriptedSource) Emit(events ...Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

// FailNext makes the next Detect call fail with err.
func (s *ScriptedSource) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Calls returns the since values Detect was called with.
func (s *ScriptedSource) Calls() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Time, len(s.calls))
	copy(out, s.calls)
	return out
}

// Detect implements source.Source.
func (s *ScriptedSource) Detect(ctx context.Context, _ source.Querier, since time.Time) (change.ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, since)
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	set := change.ChangeSet{}
	for _, e := range s.events {
		if e.At.After(since) && !e.At.After(now) {
			set.Add(e.Record, change.Change{Cause: s.cause, ObservedAt: e.At})
		}
	}
	return set, nil
}
