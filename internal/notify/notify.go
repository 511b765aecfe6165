package notify

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	logx "tradecal/pkg/logx"
)

// Level drives channel presentation (colors, prefixes).
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one human-readable outcome report.
type Notification struct {
	Subject string
	Message string
	Level   Level
	// Details carries structured correlation metadata (event id/title,
	// order id, ...) for channels that can render it.
	Details map[string]string
}

// Channel delivers a notification over one transport.
type Channel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Service fans a notification out to all configured channels, rate-limited.
//
// Notify never returns an error: per the sink contract, delivery failures
// are not surfaced back into the dispatch path.
type Service struct {
	channels []Channel
	limiter  *rate.Limiter
	log      logx.Logger

	mu      sync.Mutex
	history []Notification
}

func NewService(ratePerSec int, log logx.Logger, channels ...Channel) *Service {
	if ratePerSec <= 0 {
		ratePerSec = 3
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		channels: channels,
		// Token bucket: burst = rate per sec, so short spikes don't block.
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		log:     log,
	}
}

func (s *Service) Notify(ctx context.Context, n Notification) {
	if n.Level == "" {
		n.Level = LevelInfo
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.log.Warn("notification dropped (context done)", logx.String("subject", n.Subject))
		return
	}

	for _, ch := range s.channels {
		if err := ch.Send(ctx, n); err != nil {
			s.log.Warn("notification send failed",
				logx.String("channel", ch.Name()),
				logx.String("subject", n.Subject),
				logx.Err(err))
		} else {
			s.log.Debug("notification sent",
				logx.String("channel", ch.Name()),
				logx.String("subject", n.Subject),
				logx.String("level", string(n.Level)))
		}
	}
	if len(s.channels) == 0 {
		// Nowhere to deliver; the log line is the report.
		s.log.Info("notification (no channels configured)",
			logx.String("subject", n.Subject),
			logx.String("message", n.Message))
	}
	s.appendHistory(n)
}

func (s *Service) appendHistory(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, n)
	if len(s.history) > 300 {
		s.history = s.history[len(s.history)-300:]
	}
}

// History returns a copy of recent notifications, for inspection.
func (s *Service) History() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.history))
	copy(out, s.history)
	return out
}
