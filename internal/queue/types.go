package queue

import (
	"fmt"
	"time"

	"github.com/roach88/ilsfeed/internal/change"
)

// Name identifies a downstream queue.
type Name string

const (
	// Generation holds records whose index document must be rebuilt.
	Generation Name = "generation"
	// Deletion holds records to remove from the index.
	Deletion Name = "deletion"
	// Availability holds records whose holdings/availability changed.
	Availability Name = "availability"
)

// Names lists every downstream queue in flush order.
var Names = []Name{Generation, Deletion, Availability}

// Table returns the table backing the queue.
func (n Name) Table() string {
	return string(n) + "_queue"
}

// Valid reports whether n is a known queue.
func (n Name) Valid() bool {
	for _, q := range Names {
		if q == n {
			return true
		}
	}
	return false
}

// ParseName converts s to a Name.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown queue %q (want one of %v)", s, Names)
	}
	return n, nil
}

// Entry is one row of a downstream queue.
type Entry struct {
	RecordID   change.RecordID `json:"record_id"`
	Cause      string          `json:"cause"`
	Priority   int             `json:"priority"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// DoneEntry is one row of the upstream feedback queue written by the
// indexer once it has processed a record.
type DoneEntry struct {
	ID       int64           `json:"id"`
	RecordID change.RecordID `json:"record_id"`
	Cause    string          `json:"cause"`
	DoneAt   time.Time       `json:"done_at"`
}
