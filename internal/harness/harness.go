package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/juju/clock/testclock"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/engine"
	"github.com/roach88/ilsfeed/internal/queue"
	"github.com/roach88/ilsfeed/internal/source"
	"github.com/roach88/ilsfeed/internal/store"
	"github.com/roach88/ilsfeed/internal/testutil"
)

// errInjected is returned by a source scheduled to fail.
var errInjected = errors.New("injected failure")

// Trace records a scenario run.
type Trace struct {
	Scenario string       `json:"scenario"`
	Cycles   []CycleTrace `json:"cycles"`
	Queue    []QueueRow   `json:"queue"`
}

// CycleTrace is one aggregator cycle as observed from outside.
type CycleTrace struct {
	Cycle      int    `json:"cycle"`
	ID         string `json:"id"`
	Now        string `json:"now"`
	Since      string `json:"since"`
	Polled     int    `json:"polled"`
	Suppressed int    `json:"suppressed"`
	Written    int    `json:"written"`
	Watermark  string `json:"watermark"`
	Error      string `json:"error,omitempty"`
}

// QueueRow is one availability queue row.
type QueueRow struct {
	Record     int64  `json:"record"`
	Cause      string `json:"cause"`
	Priority   int    `json:"priority"`
	EnqueuedAt string `json:"enqueued_at"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Pass   bool
	Errors []string
	Trace  Trace
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Run executes a scenario against the real aggregator.
//
// Each scenario runs in a fresh in-memory database for isolation. The
// clock starts at scenario.Start and advances by scenario.Step after each
// cycle. Cycle errors are recorded in the trace, not returned; the error
// return is for harness setup problems only.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	clk := testclock.NewClock(scenario.Start.UTC())

	scripted := make(map[string]*testutil.ScriptedSource, len(scenario.Sources))
	sources := make([]source.Source, 0, len(scenario.Sources))
	for _, spec := range scenario.Sources {
		events := make([]testutil.Event, 0, len(spec.Events))
		for _, e := range spec.Events {
			events = append(events, testutil.Event{
				Record: change.RecordID(e.Record),
				At:     scenario.Start.Add(e.At.Std()).UTC(),
			})
		}
		src := testutil.NewScriptedSource(spec.Name, change.Cause(spec.Cause), clk, events...)
		scripted[spec.Name] = src
		sources = append(sources, src)
	}

	failures := make(map[int][]string)
	for _, f := range scenario.Failures {
		failures[f.Cycle] = append(failures[f.Cycle], f.Source)
	}

	lookback := scenario.Lookback.Std()
	if lookback == 0 {
		lookback = engine.DefaultLookback
	}

	writer := engine.NewNotificationWriter(st, engine.WithBatchSize(scenario.BatchSize))
	agg := engine.NewAggregator(sources, nil, writer, st,
		engine.WithClock(clk),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("cycle")),
		engine.WithSafetyMargin(scenario.SafetyMargin.Std()),
		engine.WithLookback(lookback),
	)

	result := &Result{Trace: Trace{Scenario: scenario.Name}}
	for cycle := 1; cycle <= scenario.Cycles; cycle++ {
		for _, name := range failures[cycle] {
			scripted[name].FailNext(errInjected)
		}

		now := clk.Now()
		res, stepErr := agg.Step(ctx)

		ct := CycleTrace{
			Cycle:      cycle,
			ID:         res.ID,
			Now:        formatTime(now),
			Since:      formatTime(res.Since),
			Polled:     res.Polled,
			Suppressed: res.Suppressed,
			Written:    res.Written,
		}
		if stepErr != nil {
			ct.Error = stepErr.Error()
		}
		w, ok, err := st.GetWatermark(ctx, engine.AggregatorWatermark)
		if err != nil {
			return nil, fmt.Errorf("cycle %d: %w", cycle, err)
		}
		if ok {
			ct.Watermark = formatTime(w)
		}
		result.Trace.Cycles = append(result.Trace.Cycles, ct)

		clk.Advance(scenario.Step.Std())
	}

	entries, err := st.ReadEntries(ctx, queue.Availability)
	if err != nil {
		return nil, err
	}
	result.Trace.Queue = make([]QueueRow, 0, len(entries))
	for _, e := range entries {
		result.Trace.Queue = append(result.Trace.Queue, QueueRow{
			Record:     int64(e.RecordID),
			Cause:      e.Cause,
			Priority:   e.Priority,
			EnqueuedAt: formatTime(e.EnqueuedAt),
		})
	}

	result.Errors = checkExpectations(scenario.Expect, &result.Trace)
	result.Pass = len(result.Errors) == 0
	return result, nil
}
