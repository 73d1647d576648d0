package change

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// SummarySeparator joins cause names in a summary.
const SummarySeparator = ", "

// Earliest returns the smallest ObservedAt in cs, or the zero time if cs is
// empty. The queue entry for a record carries its oldest pending signal.
func Earliest(cs Changes) time.Time {
	var min time.Time
	for _, c := range cs {
		if min.IsZero() || c.ObservedAt.Before(min) {
			min = c.ObservedAt
		}
	}
	return min
}

// Summary returns the distinct causes of cs in sorted order, joined with
// SummarySeparator.
func Summary(cs Changes) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs.Sorted() {
		parts = append(parts, NormalizeCause(string(c.Cause)))
	}
	return strings.Join(parts, SummarySeparator)
}

// NormalizeCause NFC-normalizes s, trims it and collapses runs of
// whitespace to a single space.
func NormalizeCause(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
