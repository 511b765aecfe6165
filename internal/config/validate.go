package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the settings that would otherwise fail at an awkward time
// (mid-invocation, or silently). It does not touch the network.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Calendar.CalendarID) == "" {
		return errors.New("calendar.calendar_id is required")
	}
	if _, err := ParseDurationField("calendar.wide_window", cfg.Calendar.WideWindow); err != nil {
		return err
	}
	if _, err := ParseDurationField("calendar.lookahead", cfg.Calendar.Lookahead); err != nil {
		return err
	}

	if !cfg.Triggers.Push.Enabled && !cfg.Triggers.Poll.Enabled {
		return errors.New("triggers: at least one of push/poll must be enabled")
	}
	if _, err := ParseDurationField("triggers.poll.interval", cfg.Triggers.Poll.Interval); err != nil {
		return err
	}
	if _, err := ParseDurationField("triggers.push.channel_ttl", cfg.Triggers.Push.ChannelTTL); err != nil {
		return err
	}

	if cfg.Parser.DefaultQuantity < 0 {
		return errors.New("parser.default_quantity must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Ledger.Driver)) {
	case "file", "sqlite", "sqlite3":
		if strings.TrimSpace(cfg.Ledger.Path) == "" {
			return fmt.Errorf("ledger.path is required for driver %q", cfg.Ledger.Driver)
		}
	case "redis":
		if strings.TrimSpace(cfg.Ledger.Addr) == "" {
			return errors.New("ledger.addr is required for driver \"redis\"")
		}
	case "", "none":
		// The ledger is the only duplicate-dispatch guard; running without
		// one is never safe.
		return errors.New("ledger.driver is required")
	default:
		return fmt.Errorf("unknown ledger.driver %q", cfg.Ledger.Driver)
	}
	if cfg.Ledger.Capacity < 0 {
		return errors.New("ledger.capacity must be >= 0")
	}
	if _, err := ParseDurationField("ledger.busy_timeout", cfg.Ledger.BusyTimeout); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Executor.BaseURL) == "" {
		return errors.New("executor.base_url is required")
	}
	if _, err := ParseDurationField("executor.timeout", cfg.Executor.Timeout); err != nil {
		return err
	}

	return nil
}
