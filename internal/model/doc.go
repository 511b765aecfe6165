// Package model defines the core data types shared across the daemon.
//
// Ownership notes:
//   - CalendarEvent is owned by the external calendar service; this process
//     only ever reads it.
//   - TradeInstruction and TradeBatch are transient: they exist within one
//     reconcile invocation and are never persisted.
//   - ExecutionRecord is the ledger's unit of persistence; immutable once
//     written, removed only by capacity eviction.
package model
