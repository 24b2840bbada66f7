// Package dropout offloads the destruction of expensive-to-release values to
// a dedicated background goroutine, so the goroutine that gives a value up
// does not pay the release cost on its own critical path.
//
// The entry point is [Dropper]. Create one with [New], hand values to it with
// Dropout, share it across goroutines with Clone, and release it with Close.
// There is exactly one worker goroutine per Dropper lineage, no matter how
// many clones exist; values are enqueued on an unbounded channel and consumed
// by that worker.
//
// Notes:
//
// The queue is unbounded. Dropout never blocks and never refuses a value for
// capacity reasons, which also means backlog grows without limit if values
// arrive faster than the worker can destroy them. There is no backpressure
// signal; callers needing bounded memory must throttle externally.
//
// Values handed to a single goroutine's Dropper handle are destroyed in the
// order they were handed over. Values from different goroutines may
// interleave in any order.
//
// Closing the last handle of a lineage blocks until the worker has destroyed
// everything still queued and terminated. Every value given to Dropout is
// destroyed exactly once by the time that final Close returns.
package dropout
