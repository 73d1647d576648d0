package engine

import "github.com/google/uuid"

// CycleIDGenerator produces the id attached to each cycle's log lines.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type CycleIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 cycle ids, so log lines
// from consecutive cycles sort by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
