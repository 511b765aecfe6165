// Package trigger contains the two invocation paths that feed the
// reconciler: a webhook receiver for calendar change pushes and a
// fixed-interval poller.
//
// The paths are deliberately uncoordinated. Either may fire first, both may
// fire for the same event, and neither knows about the other; duplicate
// suppression is entirely the ledger's job.
package trigger
