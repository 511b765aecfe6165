// Package ledger tracks which calendar events have already been dispatched.
//
// The ledger is the only guard against double-dispatch across the two
// trigger paths, so it is backed by an external persisted key-value store
// (file, sqlite, or redis) rather than process memory: separate invocations
// may run in unrelated execution contexts.
//
// It is bounded: a fixed capacity with FIFO eviction keeps it an operational
// artifact, not a book of record.
package ledger
