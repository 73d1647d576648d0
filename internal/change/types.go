package change

import (
	"sort"
	"time"
)

// RecordID identifies a catalog (bibliographic) record. It is stable for the
// lifetime of the record.
type RecordID int64

// Cause labels why a record changed.
type Cause string

// Causes reported by the change sources.
const (
	CauseItemStatus  Cause = "Item Status Changed"
	CauseItemRecord  Cause = "Item Record Updated"
	CauseReserve     Cause = "Reserve List Changed"
	CauseOrder       Cause = "Order Changed"
	CauseSerialIssue Cause = "Serial Issue Checked In"
)

// Change is one cause-of-change plus the instant it was observed.
type Change struct {
	Cause      Cause     `json:"cause"`
	ObservedAt time.Time `json:"observed_at"`
}

// Changes is the set of changes seen for a single record, keyed by cause.
type Changes map[Cause]Change

// Add inserts c. When the cause is already present the earlier ObservedAt
// is kept.
func (cs Changes) Add(c Change) {
	if prev, ok := cs[c.Cause]; ok && !c.ObservedAt.Before(prev.ObservedAt) {
		return
	}
	cs[c.Cause] = c
}

// Has reports whether a change with the given cause is present.
func (cs Changes) Has(cause Cause) bool {
	_, ok := cs[cause]
	return ok
}

// Sorted returns the changes ordered by cause.
func (cs Changes) Sorted() []Change {
	out := make([]Change, 0, len(cs))
	for _, c := range cs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cause < out[j].Cause })
	return out
}

// ChangeSet maps each affected record to the changes observed for it.
type ChangeSet map[RecordID]Changes

// Add records a change for id.
func (s ChangeSet) Add(id RecordID, c Change) {
	cs, ok := s[id]
	if !ok {
		cs = make(Changes, 1)
		s[id] = cs
	}
	cs.Add(c)
}

// Merge unions other into s. Change sets for the same record are merged,
// never overwritten.
func (s ChangeSet) Merge(other ChangeSet) {
	for id, cs := range other {
		for _, c := range cs {
			s.Add(id, c)
		}
	}
}

// Contains reports whether (id, cause) is a member of s.
func (s ChangeSet) Contains(id RecordID, cause Cause) bool {
	cs, ok := s[id]
	return ok && cs.Has(cause)
}

// Len returns the number of (record, cause) pairs in s.
func (s ChangeSet) Len() int {
	n := 0
	for _, cs := range s {
		n += len(cs)
	}
	return n
}

// Records returns the record ids in ascending order.
func (s ChangeSet) Records() []RecordID {
	ids := make([]RecordID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
