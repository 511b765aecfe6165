package reconcile

import (
	"context"
	"sync"
	"time"

	"tradecal/internal/calendar"
	"tradecal/internal/dispatcher"
	"tradecal/internal/ledger"
	"tradecal/internal/metrics"
	"tradecal/internal/model"
	"tradecal/internal/parser"
	logx "tradecal/pkg/logx"
)

// Reconciler runs one scan-parse-dedup-dispatch cycle over a window.
//
// The mutex serializes cycles within this process, so an overlapping push
// and poll tick never race on the same event here. Across processes the only
// guard is the ledger's mark-before-dispatch ordering.
type Reconciler struct {
	source calendar.Source
	parser *parser.Parser
	ledger *ledger.Ledger
	disp   *dispatcher.Dispatcher
	sink   metrics.Sink
	log    logx.Logger
	clock  func() time.Time

	mu sync.Mutex
}

func New(source calendar.Source, p *parser.Parser, led *ledger.Ledger, disp *dispatcher.Dispatcher, sink metrics.Sink, log logx.Logger) *Reconciler {
	if sink == nil {
		sink = metrics.NoopSink{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reconciler{
		source: source,
		parser: p,
		ledger: led,
		disp:   disp,
		sink:   sink,
		log:    log,
		clock:  time.Now,
	}
}

// Run executes one cycle for the given trigger path and window.
//
// It returns an error only when the calendar scan itself fails; per-event
// problems (parse misses, ledger faults, downstream failures) are handled
// inside the cycle and never abort the remaining events.
func (r *Reconciler) Run(ctx context.Context, trigger string, w model.Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.clock()
	r.sink.ReconcileStarted(trigger)
	r.log.Debug("reconcile cycle start",
		logx.String("trigger", trigger),
		logx.Time("window_start", w.Start),
		logx.Time("window_end", w.End))

	events, err := r.source.CandidateEvents(ctx, w)
	if err != nil {
		r.sink.ReconcileCompleted(trigger, r.clock().Sub(start), 0, err)
		r.log.Error("calendar scan failed", logx.String("trigger", trigger), logx.Err(err))
		return err
	}

	for _, ev := range events {
		r.processEvent(ctx, trigger, ev)
	}

	r.sink.ReconcileCompleted(trigger, r.clock().Sub(start), len(events), nil)
	r.log.Debug("reconcile cycle done",
		logx.String("trigger", trigger),
		logx.Int("candidates", len(events)))
	return nil
}

func (r *Reconciler) processEvent(ctx context.Context, trigger string, ev model.CalendarEvent) {
	res := r.parser.Parse(ev.Text())
	switch res.Kind {
	case parser.KindNone:
		// Keyword hit with no parsable instruction: silently not actionable.
		r.sink.ParseResult("none")
		r.log.Debug("event not actionable", logx.String("event_id", ev.ID), logx.String("title", ev.Title))
		return
	case parser.KindSingle:
		r.sink.ParseResult("single")
	case parser.KindBatch:
		r.sink.ParseResult("batch")
	}

	has, err := r.ledger.Has(ctx, ev.ID)
	if err != nil {
		// Fail open: an unreadable ledger must not silently drop trades.
		// The duplicate risk is accepted and surfaced loudly instead.
		r.sink.LedgerFailure("has")
		r.log.Warn("ledger read failed, treating event as not yet dispatched",
			logx.String("event_id", ev.ID), logx.Err(err))
		has = false
	}
	if has {
		r.sink.DuplicateSkip()
		r.log.Info("duplicate event skipped",
			logx.String("trigger", trigger),
			logx.String("event_id", ev.ID),
			logx.String("title", ev.Title))
		return
	}

	// Mark before dispatching. If the process dies mid-dispatch the event
	// stays marked and is never retried: at-most-once.
	if err := r.ledger.MarkDispatched(ctx, ev.ID); err != nil {
		r.sink.LedgerFailure("mark")
		r.log.Warn("ledger mark failed, dispatching anyway",
			logx.String("event_id", ev.ID), logx.Err(err))
	}

	corr := dispatcher.Correlation{EventID: ev.ID, EventTitle: ev.Title}
	switch res.Kind {
	case parser.KindSingle:
		r.log.Info("dispatching trade",
			logx.String("trigger", trigger),
			logx.String("event_id", ev.ID),
			logx.String("instruction", res.Instruction.String()))
		if _, err := r.disp.Submit(ctx, res.Instruction, corr); err != nil {
			// Already reported by the dispatcher; the cycle moves on.
			return
		}
	case parser.KindBatch:
		r.log.Info("dispatching batch",
			logx.String("trigger", trigger),
			logx.String("event_id", ev.ID),
			logx.Int("trades", len(res.Batch.Instructions)))
		if _, err := r.disp.SubmitBatch(ctx, res.Batch, corr); err != nil {
			return
		}
	}
}
