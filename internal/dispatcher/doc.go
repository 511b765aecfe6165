// Package dispatcher submits parsed instructions to the downstream
// execution service and forwards every outcome to the notification sink.
//
// There is no retry logic anywhere in here: one call, one outcome, one
// report. Duplicate trades are worse than missed ones.
package dispatcher
