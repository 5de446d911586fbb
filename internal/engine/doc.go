// Package engine implements the local-first synchronization layer: the
// in-memory State a presentation layer reads, the Coordinator that
// reconciles it with the remote store, and the Dispatcher through which
// every user mutation flows.
//
// ARCHITECTURE:
//
// Local first:
// The Local Store is loaded into State before any network activity. Every
// mutation is committed to State and the store before the caller regains
// control; the matching remote call runs afterwards on its own goroutine.
// Result separates the two outcomes so callers (and tests) can observe
// each one independently.
//
// Reconciliation:
// A Coordinator pass reads every collection from the remote concurrently
// (errgroup fan-out; a failed read is reduced to "no data" and never
// cancels its siblings), joins, then merges each collection with the
// current State under the State lock:
//   - students, attendance, notifications, reviews: remote replaces local
//     when the remote set is non-empty
//   - accounts: structural merge by normalized username, then dedup
//   - class config: remote fields overlaid on local
//
// Backpressure:
// Bulk pushes are cut into fixed-size chunks. All calls of a chunk are
// awaited together, then the dispatcher sleeps for the configured delay
// before issuing the next chunk. Bulk delete is strictly sequential.
//
// CRITICAL PATTERNS:
//
// No stale writes:
// New collection values are always computed inside State.Update from the
// State as it is at that moment, never from a copy taken before a remote
// call.
//
// Teardown:
// After Coordinator.Close, results of a pass still in flight are dropped
// instead of being written.
package engine
