package trigger

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tradecal/internal/metrics"
	"tradecal/internal/model"
	"tradecal/internal/reconcile"
	logx "tradecal/pkg/logx"
)

// Google push notification headers.
const (
	headerResourceState = "X-Goog-Resource-State"
	headerChannelID     = "X-Goog-Channel-ID"
	headerChannelToken  = "X-Goog-Channel-Token"

	// stateSync is the handshake Google sends right after a watch channel is
	// created. It carries no change information.
	stateSync = "sync"
)

// PushConfig configures the webhook receiver.
type PushConfig struct {
	Addr         string        // listen address, default ":8080"
	ChannelToken string        // expected X-Goog-Channel-Token; empty disables the check
	WideWindow   time.Duration // half-width of the rescan window, default 24h
}

// PushServer receives calendar change notifications and turns each one into
// a wide-window reconcile cycle.
//
// Pushes carry no event payload, only "something changed". The handler acks
// immediately and kicks an async full rescan; back-to-back pushes coalesce
// into one pending rescan.
type PushServer struct {
	cfg   PushConfig
	rec   *reconcile.Reconciler
	log   logx.Logger
	extra map[string]http.Handler // extra mux routes, e.g. /metrics
	clock func() time.Time

	kicks chan struct{}
}

func NewPushServer(cfg PushConfig, rec *reconcile.Reconciler, log logx.Logger) *PushServer {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.WideWindow <= 0 {
		cfg.WideWindow = 24 * time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &PushServer{
		cfg:   cfg,
		rec:   rec,
		log:   log,
		extra: map[string]http.Handler{},
		clock: time.Now,
		kicks: make(chan struct{}, 1),
	}
}

// Route mounts an extra handler on the server mux (e.g. "/metrics").
// Must be called before Run.
func (s *PushServer) Route(pattern string, h http.Handler) {
	s.extra[pattern] = h
}

// Handler returns the server's HTTP handler. Exposed for tests.
func (s *PushServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for pattern, h := range s.extra {
		mux.Handle(pattern, h)
	}
	mux.HandleFunc("/", s.handlePush)
	return mux
}

func (s *PushServer) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.cfg.ChannelToken != "" && r.Header.Get(headerChannelToken) != s.cfg.ChannelToken {
		s.log.Warn("push with bad channel token rejected",
			logx.String("channel_id", r.Header.Get(headerChannelID)))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	state := r.Header.Get(headerResourceState)
	if state == stateSync {
		// Channel handshake. Ack without rescanning.
		s.log.Debug("watch channel handshake acked",
			logx.String("channel_id", r.Header.Get(headerChannelID)))
		w.WriteHeader(http.StatusOK)
		return
	}

	s.log.Debug("calendar push received",
		logx.String("state", state),
		logx.String("channel_id", r.Header.Get(headerChannelID)))

	// Coalesce: one pending rescan is enough, whatever changed since will be
	// in its window anyway.
	select {
	case s.kicks <- struct{}{}:
	default:
	}
	w.WriteHeader(http.StatusOK)
}

// Run serves the webhook endpoint and drains rescan kicks until ctx is
// canceled. Reconcile errors are logged and swallowed; a broken cycle never
// takes the receiver down.
func (s *PushServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("push receiver listening", logx.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-s.kicks:
			now := s.clock()
			w := model.WideWindow(now, s.cfg.WideWindow)
			if err := s.rec.Run(ctx, metrics.TriggerPush, w); err != nil {
				s.log.Error("push-triggered rescan failed", logx.Err(err))
			}
		}
	}
}
