package harness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ilsfeed/internal/config"
)

func intPtr(n int) *int { return &n }

func minimalScenario() *Scenario {
	return &Scenario{
		Name:         "minimal",
		Description:  "one event, two cycles",
		Start:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Step:         config.Duration(time.Second),
		Cycles:       2,
		SafetyMargin: config.Duration(5 * time.Second),
		Sources: []SourceScript{{
			Name:   "orders",
			Cause:  "Order Changed",
			Events: []EventSpec{{Record: 9, At: config.Duration(-time.Second)}},
		}},
	}
}

func TestRun_Minimal(t *testing.T) {
	result, err := Run(context.Background(), minimalScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass)
	require.Len(t, result.Trace.Cycles, 2)
	assert.Equal(t, 1, result.Trace.Cycles[0].Written)
	assert.Equal(t, "2024-03-01T02:00:00Z", result.Trace.Cycles[0].Since, "default lookback applies")
	assert.Equal(t, 1, result.Trace.Cycles[1].Suppressed)
	require.Len(t, result.Trace.Queue, 1)
	assert.Equal(t, int64(9), result.Trace.Queue[0].Record)
}

func TestRun_ExpectationsFail(t *testing.T) {
	s := minimalScenario()
	s.Expect = &Expect{
		Written:      intPtr(2),
		FailedCycles: intPtr(1),
		Notified:     []NotifiedSpec{{Record: 10, Cause: "Order Changed"}},
	}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "written")
	assert.Contains(t, result.Errors[1], "failed_cycles")
	assert.Contains(t, result.Errors[2], "record 10")
}

func TestRun_FailureRecordedInTrace(t *testing.T) {
	s := minimalScenario()
	s.Failures = []Failure{{Cycle: 1, Source: "orders"}}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	first := result.Trace.Cycles[0]
	assert.Contains(t, first.Error, "SOURCE_UNAVAILABLE")
	assert.Empty(t, first.Watermark)

	second := result.Trace.Cycles[1]
	assert.Empty(t, second.Error)
	assert.Equal(t, 1, second.Written)
	assert.Equal(t, first.Since, second.Since)
}

func TestRun_IsDeterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/overlap_suppression.yaml")
	require.NoError(t, err)

	a, err := Run(context.Background(), s)
	require.NoError(t, err)
	b, err := Run(context.Background(), s)
	require.NoError(t, err)

	ja, err := MarshalTrace(&a.Trace)
	require.NoError(t, err)
	jb, err := MarshalTrace(&b.Trace)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}
