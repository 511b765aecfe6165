package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged by the registry, never propagated; a
// collision simply leaves that metric unexported.
type PrometheusSink struct {
	reconcilesTotal      *prometheus.CounterVec
	reconcileErrorsTotal *prometheus.CounterVec
	reconcileDuration    prometheus.Histogram
	candidatesScanned    prometheus.Counter

	parseResultsTotal *prometheus.CounterVec

	duplicateSkipsTotal prometheus.Counter
	ledgerFailuresTotal *prometheus.CounterVec

	dispatchOutcomesTotal *prometheus.CounterVec
}

var _ Sink = (*PrometheusSink)(nil)

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		reconcilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_reconciles_total",
			Help: "Total reconcile cycles, by trigger path.",
		}, []string{"trigger"}),
		reconcileErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_reconcile_errors_total",
			Help: "Reconcile cycles that ended in an error, by trigger path.",
		}, []string{"trigger"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradecal_reconcile_duration_seconds",
			Help:    "Duration of one reconcile cycle in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		candidatesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecal_candidate_events_total",
			Help: "Total candidate events returned by calendar scans.",
		}),
		parseResultsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_parse_results_total",
			Help: "Parse outcomes per candidate event.",
		}, []string{"kind"}),
		duplicateSkipsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradecal_duplicate_skips_total",
			Help: "Events skipped because the ledger already had them.",
		}),
		ledgerFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_ledger_failures_total",
			Help: "Ledger store failures (handled fail-open).",
		}, []string{"op"}),
		dispatchOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_dispatch_outcomes_total",
			Help: "Dispatch outcomes reported by the execution service.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		s.reconcilesTotal, s.reconcileErrorsTotal, s.reconcileDuration,
		s.candidatesScanned, s.parseResultsTotal, s.duplicateSkipsTotal,
		s.ledgerFailuresTotal, s.dispatchOutcomesTotal,
	} {
		// Best-effort: a duplicate registration drops that collector only.
		_ = reg.Register(c)
	}
	return s
}

func (s *PrometheusSink) ReconcileStarted(trigger string) {
	s.reconcilesTotal.WithLabelValues(trigger).Inc()
}

func (s *PrometheusSink) ReconcileCompleted(trigger string, d time.Duration, candidates int, err error) {
	s.reconcileDuration.Observe(d.Seconds())
	s.candidatesScanned.Add(float64(candidates))
	if err != nil {
		s.reconcileErrorsTotal.WithLabelValues(trigger).Inc()
	}
}

func (s *PrometheusSink) ParseResult(kind string) {
	s.parseResultsTotal.WithLabelValues(kind).Inc()
}

func (s *PrometheusSink) DuplicateSkip() { s.duplicateSkipsTotal.Inc() }

func (s *PrometheusSink) LedgerFailure(op string) {
	s.ledgerFailuresTotal.WithLabelValues(op).Inc()
}

func (s *PrometheusSink) DispatchOutcome(status string) {
	s.dispatchOutcomesTotal.WithLabelValues(status).Inc()
}
