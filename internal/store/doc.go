// Package store defines the persistence contracts of the trainer core.
//
// Implementations live in internal/platform/memory and
// internal/platform/postgres. Every implementation must honor the
// concurrency rules documented on each interface: compare-and-swap for
// review cards, idempotent appends for the activity log, per-user
// serialization of day folds and weekly resets, and atomic publication of
// ranking snapshots.
package store
