// Package reconcile holds the one routine both trigger paths funnel into.
//
// All dedup logic lives here and nowhere else, so it is testable without
// any scheduling or I/O: triggers are thin adapters that build a window and
// call Run.
package reconcile
