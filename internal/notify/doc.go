// Package notify reports outcomes to humans.
//
// Every failure path in this daemon ends in a notification instead of a
// retry, so sends are best-effort but never silently dropped from logs.
// Channel delivery failures are logged and not surfaced to callers.
package notify
