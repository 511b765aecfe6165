// Package app wires the daemon together: config, logging, ledger store,
// calendar client, notification channels, and the two trigger paths.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradecal/internal/calendar"
	"tradecal/internal/config"
	"tradecal/internal/dispatcher"
	"tradecal/internal/ledger"
	"tradecal/internal/metrics"
	"tradecal/internal/notify"
	"tradecal/internal/parser"
	"tradecal/internal/reconcile"
	"tradecal/internal/runtime/supervisor"
	"tradecal/internal/trigger"
	logx "tradecal/pkg/logx"
)

// App is the composed daemon.
type App struct {
	configPath string
	manager    *config.Manager

	logSvc *logx.Service
	log    logx.Logger

	sup   *supervisor.Supervisor
	store ledger.Store

	mu    sync.Mutex
	watch *calendar.WatchChannel
	cal   *calendar.Client
}

// New loads and validates the config and sets up logging. No I/O beyond the
// config file happens yet; Start does the rest.
func New(configPath string) (*App, error) {
	manager := config.NewManager(configPath)
	cfg, err := manager.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	manager.SetLogger(log.With(logx.String("component", "config")))
	manager.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	return &App{
		configPath: configPath,
		manager:    manager,
		logSvc:     logSvc,
		log:        log,
	}, nil
}

// Start brings up all components and returns once they are running.
func (a *App) Start(ctx context.Context) error {
	cfg := a.manager.Get()

	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("component", "supervisor"))))

	// Durations were validated at load time; errors here are unreachable.
	wideWindow, _ := config.ParseDurationOrDefault("calendar.wide_window", cfg.Calendar.WideWindow, 24*time.Hour)
	lookahead, _ := config.ParseDurationOrDefault("calendar.lookahead", cfg.Calendar.Lookahead, 2*time.Minute)
	pollInterval, _ := config.ParseDurationOrDefault("triggers.poll.interval", cfg.Triggers.Poll.Interval, 5*time.Minute)
	channelTTL, _ := config.ParseDurationOrDefault("triggers.push.channel_ttl", cfg.Triggers.Push.ChannelTTL, 168*time.Hour)
	busyTimeout, _ := config.ParseDurationField("ledger.busy_timeout", cfg.Ledger.BusyTimeout)
	execTimeout, _ := config.ParseDurationField("executor.timeout", cfg.Executor.Timeout)

	store, err := ledger.OpenStore(ledger.StoreConfig{
		Driver:      cfg.Ledger.Driver,
		Path:        cfg.Ledger.Path,
		Addr:        cfg.Ledger.Addr,
		Password:    cfg.Ledger.Password,
		DB:          cfg.Ledger.DB,
		BusyTimeout: busyTimeout,
	}, a.log.With(logx.String("component", "ledger.store")))
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	a.store = store

	led := ledger.New(store, ledger.Config{
		Key:      cfg.Ledger.Key,
		Capacity: cfg.Ledger.Capacity,
	}, a.log.With(logx.String("component", "ledger")))

	cal, err := calendar.NewClient(ctx, calendar.Config{
		CalendarID:   cfg.Calendar.CalendarID,
		ClientID:     cfg.Calendar.ClientID,
		ClientSecret: cfg.Calendar.ClientSecret,
		TokenFile:    cfg.Calendar.TokenFile,
	}, a.log.With(logx.String("component", "calendar")))
	if err != nil {
		return fmt.Errorf("calendar client: %w", err)
	}
	a.mu.Lock()
	a.cal = cal
	a.mu.Unlock()

	notifier := a.buildNotifier(cfg)

	var sink metrics.Sink = metrics.NoopSink{}
	if cfg.Metrics.Enabled {
		sink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
	}

	exec := dispatcher.NewClient(dispatcher.ClientConfig{
		BaseURL: cfg.Executor.BaseURL,
		Secret:  cfg.Executor.Secret,
		Timeout: execTimeout,
	})
	disp := dispatcher.New(exec, notifier, sink, a.log.With(logx.String("component", "dispatcher")))

	p := parser.New(parser.Defaults{
		Symbol:   cfg.Parser.DefaultSymbol,
		Quantity: cfg.Parser.DefaultQuantity,
	})

	rec := reconcile.New(cal, p, led, disp, sink, a.log.With(logx.String("component", "reconcile")))

	if cfg.Triggers.Push.Enabled {
		srv := trigger.NewPushServer(trigger.PushConfig{
			Addr:         cfg.Triggers.Push.Addr,
			ChannelToken: cfg.Triggers.Push.ChannelToken,
			WideWindow:   wideWindow,
		}, rec, a.log.With(logx.String("component", "trigger.push")))
		if cfg.Metrics.Enabled {
			srv.Route("/metrics", promhttp.Handler())
		}
		a.sup.GoRestart("trigger.push", srv.Run)

		if cfg.Triggers.Push.CallbackURL != "" {
			a.startWatchLoop(cfg.Triggers.Push.CallbackURL, cfg.Triggers.Push.ChannelToken, channelTTL)
		} else {
			a.log.Warn("push enabled without callback_url: serving webhooks but not registering a watch channel")
		}
	}

	if cfg.Triggers.Poll.Enabled {
		poller := trigger.NewPoller(trigger.PollConfig{
			Interval:  pollInterval,
			Lookahead: lookahead,
		}, rec, a.log.With(logx.String("component", "trigger.poll")))
		a.sup.GoRestart("trigger.poll", poller.Run)
	}

	// Without the push server there is no mux carrying /metrics, so a
	// poll-only deployment gets its own listener.
	if cfg.Metrics.Enabled && !cfg.Triggers.Push.Enabled {
		ms := metrics.NewServer(cfg.Metrics.Addr, a.log.With(logx.String("component", "metrics")))
		a.sup.GoRestart("metrics.server", ms.Run)
	}

	a.startConfigWatch()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("started",
		logx.Bool("push", cfg.Triggers.Push.Enabled),
		logx.Bool("poll", cfg.Triggers.Poll.Enabled),
		logx.String("ledger_driver", cfg.Ledger.Driver))
	return nil
}

// buildNotifier registers every channel whose credentials are present.
func (a *App) buildNotifier(cfg *config.Config) *notify.Service {
	log := a.log.With(logx.String("component", "notify"))

	var channels []notify.Channel
	if cfg.Notify.Discord.WebhookURL != "" {
		channels = append(channels, notify.NewDiscordChannel(cfg.Notify.Discord.WebhookURL))
	}
	if cfg.Notify.Telegram.Token != "" && cfg.Notify.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramChannel(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			log.Warn("telegram channel disabled", logx.Err(err))
		} else {
			channels = append(channels, tg)
		}
	}
	return notify.NewService(cfg.Notify.RatePerSec, log, channels...)
}

// startWatchLoop keeps one watch channel registered, replacing it before it
// expires. Registration failures restart with backoff.
func (a *App) startWatchLoop(callbackURL, token string, ttl time.Duration) {
	a.sup.GoRestart("calendar.watch", func(ctx context.Context) error {
		for {
			ch, err := a.cal.Watch(ctx, callbackURL, token, ttl)
			if err != nil {
				return err
			}
			a.mu.Lock()
			a.watch = ch
			a.mu.Unlock()

			renew := ttl
			if !ch.Expires.IsZero() {
				renew = time.Until(ch.Expires)
			}
			// Renew ahead of expiry so pushes never lapse.
			renew -= 10 * time.Minute
			if renew < time.Minute {
				renew = time.Minute
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(renew):
			}

			if err := a.cal.StopWatch(ctx, ch); err != nil {
				a.log.Warn("stale watch channel not stopped", logx.Err(err))
			}
		}
	}, supervisor.WithRestartBackoff(5*time.Second, 5*time.Minute))
}

// startConfigWatch hot-reloads the logging section on config file changes.
// Everything else is wired at Start and needs a restart to change.
func (a *App) startConfigWatch() {
	a.sup.GoRestart("config.watch", a.manager.Watch)

	sub := a.manager.Subscribe(1)
	a.sup.Go0("config.apply", func(ctx context.Context) {
		defer a.manager.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.logSvc.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				a.log.Info("logging config applied", logx.String("level", cfg.Logging.Level))
			}
		}
	})
}

// Stop shuts everything down: triggers first, then the watch channel, then
// the store.
func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	var errs []error
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, err)
		}
	}

	a.mu.Lock()
	watch, cal := a.watch, a.cal
	a.watch = nil
	a.mu.Unlock()
	if watch != nil && cal != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cal.StopWatch(stopCtx, watch); err != nil {
			a.log.Warn("watch channel not stopped", logx.Err(err))
		}
		cancel()
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close ledger store: %w", err))
		}
	}
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
	return errors.Join(errs...)
}
