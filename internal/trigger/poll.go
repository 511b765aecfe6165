package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"tradecal/internal/metrics"
	"tradecal/internal/model"
	"tradecal/internal/reconcile"
	logx "tradecal/pkg/logx"
)

// PollConfig configures the fixed-interval scan.
type PollConfig struct {
	Interval  time.Duration // default 5m
	Lookahead time.Duration // narrow window length, default 2m
}

// Poller runs a narrow-window reconcile on a fixed schedule. It is the
// safety net for missed or dropped pushes: anything starting within the
// lookahead gets one more chance to be dispatched.
type Poller struct {
	cfg   PollConfig
	rec   *reconcile.Reconciler
	log   logx.Logger
	clock func() time.Time
}

func NewPoller(cfg PollConfig, rec *reconcile.Reconciler, log logx.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 2 * time.Minute
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Poller{cfg: cfg, rec: rec, log: log, clock: time.Now}
}

// Tick runs one poll cycle. Exposed for tests and for an immediate scan on
// startup.
func (p *Poller) Tick(ctx context.Context) error {
	now := p.clock()
	w := model.NarrowWindow(now, p.cfg.Lookahead)
	return p.rec.Run(ctx, metrics.TriggerPoll, w)
}

// Run schedules Tick every Interval until ctx is canceled. Cycle errors are
// logged and swallowed; the schedule keeps going.
func (p *Poller) Run(ctx context.Context) error {
	cl := cronLogger{p.log}
	c := cron.New(cron.WithChain(cron.Recover(cl)))

	_, err := c.AddFunc(fmt.Sprintf("@every %s", p.cfg.Interval), func() {
		if err := p.Tick(ctx); err != nil {
			p.log.Error("poll cycle failed", logx.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule poll: %w", err)
	}

	p.log.Info("poller started",
		logx.Duration("interval", p.cfg.Interval),
		logx.Duration("lookahead", p.cfg.Lookahead))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts logx to the cron.Logger interface.
type cronLogger struct {
	log logx.Logger
}

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.log.Debug(msg, kvFields(kv)...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	fields := append(kvFields(kv), logx.Err(err))
	c.log.Error(msg, fields...)
}

func kvFields(kv []interface{}) []logx.Field {
	fields := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		fields = append(fields, logx.Any(k, kv[i+1]))
	}
	return fields
}
