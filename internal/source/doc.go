// Package source implements the change sources polled by the aggregator.
//
// Each source inspects one feed of the ILS database (item status
// transitions, item record edits, course reserves, orders, serial check-ins)
// and reports, for every catalog record touched since a watermark, the
// cause and the earliest time it was seen. Sources are read-only and safe to
// run concurrently over a shared pgxpool.Pool: every Detect call acquires
// and releases its own pooled connection.
//
// Detect never returns a partial result. Any query or scan failure discards
// everything read so far.
package source
