package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ilsfeed/internal/config"
)

// Scenario is a scripted change history plus expectations.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Start is the clock's value at the first cycle.
	Start time.Time `yaml:"start"`

	// Step is how far the clock advances after each cycle.
	Step config.Duration `yaml:"step"`

	Cycles       int             `yaml:"cycles"`
	SafetyMargin config.Duration `yaml:"safety_margin"`
	Lookback     config.Duration `yaml:"lookback"`

	// BatchSize overrides the notification batch size (default 100).
	BatchSize int `yaml:"batch_size,omitempty"`

	Sources  []SourceScript `yaml:"sources"`
	Failures []Failure      `yaml:"failures,omitempty"`
	Expect   *Expect        `yaml:"expect,omitempty"`
}

// SourceScript is one scripted change source.
type SourceScript struct {
	Name   string      `yaml:"name"`
	Cause  string      `yaml:"cause"`
	Events []EventSpec `yaml:"events"`
}

// EventSpec is a change to record at start + At.
type EventSpec struct {
	Record int64           `yaml:"record"`
	At     config.Duration `yaml:"at"`
}

// Failure makes a source fail during one cycle.
type Failure struct {
	Cycle  int    `yaml:"cycle"`
	Source string `yaml:"source"`
}

// Expect holds assertions checked after the run.
type Expect struct {
	// Written is the total number of availability rows.
	Written *int `yaml:"written,omitempty"`

	// FailedCycles is the number of cycles that returned an error.
	FailedCycles *int `yaml:"failed_cycles,omitempty"`

	// Notified lists rows that must be present in the availability queue.
	Notified []NotifiedSpec `yaml:"notified,omitempty"`
}

// NotifiedSpec identifies an expected availability row.
type NotifiedSpec struct {
	Record int64  `yaml:"record"`
	Cause  string `yaml:"cause"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Start.IsZero() {
		return fmt.Errorf("start is required")
	}
	if s.Cycles < 1 {
		return fmt.Errorf("cycles must be at least 1")
	}
	if s.Step < 0 || s.SafetyMargin < 0 || s.Lookback < 0 {
		return fmt.Errorf("step, safety_margin and lookback must not be negative")
	}
	if len(s.Sources) == 0 {
		return fmt.Errorf("sources list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Sources))
	for i, src := range s.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d]: name is required", i)
		}
		if src.Cause == "" {
			return fmt.Errorf("sources[%d]: cause is required", i)
		}
		if names[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate source %q", i, src.Name)
		}
		names[src.Name] = true
	}

	for i, f := range s.Failures {
		if f.Cycle < 1 || f.Cycle > s.Cycles {
			return fmt.Errorf("failures[%d]: cycle %d out of range 1..%d", i, f.Cycle, s.Cycles)
		}
		if !names[f.Source] {
			return fmt.Errorf("failures[%d]: unknown source %q", i, f.Source)
		}
	}
	return nil
}
