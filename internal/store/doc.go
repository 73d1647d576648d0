// Package store provides SQLite-backed durable storage for ilsfeed.
//
// The store holds everything the pipeline persists when it runs against a
// local database:
//   - Watermarks: one named timestamp per loop ("avail", "queue")
//   - Downstream queues: generation_queue, deletion_queue, availability_queue
//   - Upstream feedback queue: done_queue, written by the indexer
//
// # Critical Patterns
//
// Timestamps are stored as INTEGER microseconds since the Unix epoch (UTC)
// so range predicates compare numerically, never as text.
//
// Queue tables are append-only. AppendEntries inserts a whole batch in one
// transaction so a batch is either fully visible or not at all.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: SQLite has one writer
//
// Writes retry transient SQLITE_BUSY / SQLITE_LOCKED errors with
// exponential backoff (see retry.go).
package store
