// Package sync implements one synchronization cycle: read the checkpoint,
// walk the feed down to it, fan the new items out to every subscriber in
// ascending order, persist them and advance the checkpoint.
//
// # Core Interfaces
//
//   - Manager: runs one cycle (PerformSync)
//   - FeedWalker: collects items at or above a boundary
//
// The collaborators for storage and delivery live in the state, writer,
// subscriptions and delivery packages. The coordinator subpackage runs
// cycles on an interval.
//
// # Failure Semantics
//
// A cycle is all-or-nothing. Any failure aborts the rest of the cycle and the
// checkpoint is left untouched, so the next cycle redelivers the same items
// (at-least-once). Destinations that already received a message before the
// failure receive it again.
//
// Failures are reported as *Error, which records the Stage that failed and a
// Kind. KindFatal marks failures that will not go away on their own: a feed
// whose structure no longer matches the selectors, or a checkpoint that was
// never seeded. Everything else is KindTransient.
package sync
