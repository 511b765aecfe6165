package dispatcher

import (
	"context"
	"fmt"

	"tradecal/internal/metrics"
	"tradecal/internal/model"
	"tradecal/internal/notify"
	logx "tradecal/pkg/logx"
)

// Dispatcher wraps an Executor and turns every submission into exactly one
// notification, success or not.
type Dispatcher struct {
	exec     Executor
	notifier *notify.Service
	sink     metrics.Sink
	log      logx.Logger
}

func New(exec Executor, notifier *notify.Service, sink metrics.Sink, log logx.Logger) *Dispatcher {
	if sink == nil {
		sink = metrics.NoopSink{}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{exec: exec, notifier: notifier, sink: sink, log: log}
}

// Submit sends one instruction downstream and reports the outcome.
func (d *Dispatcher) Submit(ctx context.Context, in model.TradeInstruction, corr Correlation) (Outcome, error) {
	out, err := d.exec.SubmitTrade(ctx, in, corr)
	d.report(ctx, in.String(), corr, out, err)
	return out, err
}

// SubmitBatch sends a multi-trade batch downstream and reports the
// aggregate outcome.
func (d *Dispatcher) SubmitBatch(ctx context.Context, batch model.TradeBatch, corr Correlation) (Outcome, error) {
	out, err := d.exec.SubmitBatch(ctx, batch, corr)
	d.report(ctx, fmt.Sprintf("batch of %d trades", len(batch.Instructions)), corr, out, err)
	return out, err
}

func (d *Dispatcher) report(ctx context.Context, what string, corr Correlation, out Outcome, err error) {
	details := map[string]string{
		"event_id":    corr.EventID,
		"event_title": corr.EventTitle,
	}

	if err != nil {
		d.sink.DispatchOutcome("transport_error")
		d.log.Error("dispatch failed", logx.String("what", what), logx.String("event_id", corr.EventID), logx.Err(err))
		// The event is already marked dispatched and will not be retried;
		// this report is the only path to recovery.
		d.notifier.Notify(ctx, notify.Notification{
			Subject: "Trade dispatch failed",
			Message: fmt.Sprintf("%s: %v (event stays marked dispatched; manual follow-up required)", what, err),
			Level:   notify.LevelError,
			Details: details,
		})
		return
	}

	d.sink.DispatchOutcome(out.Status)
	if out.OrderID != "" {
		details["order_id"] = out.OrderID
	}
	details["status"] = out.Status

	switch out.Status {
	case StatusExecuted:
		d.log.Info("trade executed", logx.String("what", what), logx.String("event_id", corr.EventID), logx.String("order_id", out.OrderID))
		d.notifier.Notify(ctx, notify.Notification{
			Subject: "Trade executed",
			Message: fmt.Sprintf("%s — %s", what, out.Message),
			Level:   notify.LevelSuccess,
			Details: details,
		})
	case StatusSimulated:
		d.log.Info("trade simulated", logx.String("what", what), logx.String("event_id", corr.EventID))
		d.notifier.Notify(ctx, notify.Notification{
			Subject: "Trade simulated (dry run)",
			Message: fmt.Sprintf("%s — %s", what, out.Message),
			Level:   notify.LevelInfo,
			Details: details,
		})
	default:
		d.log.Error("execution service rejected trade",
			logx.String("what", what), logx.String("event_id", corr.EventID), logx.String("message", out.Message))
		d.notifier.Notify(ctx, notify.Notification{
			Subject: "Trade failed",
			Message: fmt.Sprintf("%s — %s (event stays marked dispatched; manual follow-up required)", what, out.Message),
			Level:   notify.LevelError,
			Details: details,
		})
	}
}
