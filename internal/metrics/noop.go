package metrics

import "time"

// NoopSink discards all metrics. Used when metrics are disabled and in tests.
type NoopSink struct{}

var _ Sink = NoopSink{}

func (NoopSink) ReconcileStarted(string)                             {}
func (NoopSink) ReconcileCompleted(string, time.Duration, int, error) {}
func (NoopSink) ParseResult(string)                                  {}
func (NoopSink) DuplicateSkip()                                      {}
func (NoopSink) LedgerFailure(string)                                {}
func (NoopSink) DispatchOutcome(string)                              {}
