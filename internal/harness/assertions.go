package harness

import (
	"fmt"
)

// checkExpectations evaluates expect against the trace and returns one
// message per failed assertion.
func checkExpectations(expect *Expect, trace *Trace) []string {
	if expect == nil {
		return nil
	}
	var errs []string

	if expect.Written != nil {
		if got := len(trace.Queue); got != *expect.Written {
			errs = append(errs, fmt.Sprintf("written: expected %d rows, got %d", *expect.Written, got))
		}
	}

	if expect.FailedCycles != nil {
		failed := 0
		for _, c := range trace.Cycles {
			if c.Error != "" {
				failed++
			}
		}
		if failed != *expect.FailedCycles {
			errs = append(errs, fmt.Sprintf("failed_cycles: expected %d, got %d", *expect.FailedCycles, failed))
		}
	}

	for _, want := range expect.Notified {
		if !containsRow(trace.Queue, want) {
			errs = append(errs, fmt.Sprintf("notified: no row for record %d with cause %q", want.Record, want.Cause))
		}
	}
	return errs
}

func containsRow(rows []QueueRow, want NotifiedSpec) bool {
	for _, r := range rows {
		if r.Record == want.Record && r.Cause == want.Cause {
			return true
		}
	}
	return false
}
