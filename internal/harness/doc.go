// Package harness replays scripted change histories through the real
// aggregator and records what it did, cycle by cycle.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: overlap_suppression
//	description: "An edit seen by overlapping polls is notified once"
//	start: 2024-03-01T12:00:00Z
//	step: 2s              # clock advance after each cycle
//	cycles: 5
//	safety_margin: 5s
//	lookback: 1h
//	sources:
//	  - name: item-status
//	    cause: Item Status Changed
//	    events:
//	      - { record: 42, at: -3s }   # offset from start
//	failures:
//	  - { cycle: 2, source: item-status }
//	expect:
//	  written: 2
//	  failed_cycles: 0
//	  notified:
//	    - { record: 42, cause: Item Status Changed }
//
// # Deterministic Execution
//
// Every run uses a fresh in-memory SQLite store, a test clock starting at
// start and sequential cycle ids ("cycle-1", "cycle-2", ...), so the trace
// is byte-identical across runs and can be compared with golden files
// under testdata/golden.
package harness
