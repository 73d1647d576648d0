package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/source_failure.yaml")
	require.NoError(t, err)

	assert.Equal(t, "source_failure", s.Name)
	assert.True(t, s.Start.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2*time.Second, s.Step.Std())
	assert.Equal(t, 3, s.Cycles)
	require.Len(t, s.Sources, 2)
	assert.Equal(t, "orders", s.Sources[1].Name)
	assert.Equal(t, time.Second, s.Sources[1].Events[0].At.Std())
	assert.Equal(t, -time.Second, s.Sources[0].Events[0].At.Std())
	require.Len(t, s.Failures, 1)
	require.NotNil(t, s.Expect)
	require.NotNil(t, s.Expect.FailedCycles)
	assert.Equal(t, 1, *s.Expect.FailedCycles)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.Error(t, err)
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: y
start: 2024-03-01T12:00:00Z
cycles: 1
sources: [{name: a, cause: b}]
cylces: 2
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cylces")
}

func TestParseScenario_Invalid(t *testing.T) {
	base := `
description: y
start: 2024-03-01T12:00:00Z
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", base + "cycles: 1\nsources: [{name: a, cause: b}]\n", "name is required"},
		{"no cycles", "name: x\n" + base + "sources: [{name: a, cause: b}]\n", "cycles"},
		{"no sources", "name: x\n" + base + "cycles: 1\n", "sources"},
		{"source without cause", "name: x\n" + base + "cycles: 1\nsources: [{name: a}]\n", "cause is required"},
		{"duplicate source", "name: x\n" + base + "cycles: 1\nsources: [{name: a, cause: b}, {name: a, cause: c}]\n", "duplicate"},
		{"failure out of range", "name: x\n" + base + "cycles: 1\nsources: [{name: a, cause: b}]\nfailures: [{cycle: 2, source: a}]\n", "out of range"},
		{"failure unknown source", "name: x\n" + base + "cycles: 1\nsources: [{name: a, cause: b}]\nfailures: [{cycle: 1, source: z}]\n", "unknown source"},
		{"negative step", "name: x\n" + base + "cycles: 1\nstep: -1s\nsources: [{name: a, cause: b}]\n", "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
