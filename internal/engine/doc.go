// Package engine runs the ilsfeed change-detection and routing loops.
//
// ARCHITECTURE:
//
// Two independent loops share nothing in memory and talk only through
// persisted queue tables:
//
//   - Aggregator polls every change source since its watermark, unions the
//     results, drops changes already seen in the previous cycle and hands
//     the net-new set to the NotificationWriter.
//   - Router drains the upstream done queue since its own watermark,
//     classifies each entry by cause and appends it to the generation,
//     deletion or availability queue.
//
// Both loops run on RepeatWithFixedDelay and expose Step so a single cycle
// can be driven from tests or the --once CLI flag.
//
// CRITICAL PATTERNS:
//
// Watermark discipline: a watermark is only advanced after every side
// effect of its cycle succeeded. Any source, read or write failure aborts
// the cycle and the next cycle re-polls the same window.
//
// Carryover elimination: a (record, cause) pair is notified once per
// contiguous run of cycles in which it stays inside the polling window.
// Identity never includes the observation timestamp.
package engine
