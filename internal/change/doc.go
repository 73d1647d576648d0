// Package change provides the value types shared by every stage of the
// change-detection pipeline.
//
// This package contains types and pure functions only. All other internal
// packages import change; change imports nothing internal.
//
// Key design constraints:
//   - A Change is identified by (RecordID, Cause). ObservedAt is metadata
//     and never takes part in equality or set membership.
//   - ChangeSet values are cycle-scoped: rebuilt every poll and discarded
//     once diffed.
//   - Cause text is NFC-normalized before it is compared or summarized.
package change
