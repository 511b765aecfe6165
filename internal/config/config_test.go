package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
calendar:
  calendar_id: primary
  lookahead: 2m
triggers:
  push:
    enabled: true
    addr: ":8080"
  poll:
    enabled: true
    interval: 5m
parser:
  default_symbol: SPY
ledger:
  driver: file
  path: /var/lib/tradecal/ledger.json
executor:
  base_url: http://localhost:8000
notify: {}
logging:
  level: info
  console: true
  file:
    enabled: false
    path: ""
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", validYAML)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Calendar.CalendarID != "primary" {
		t.Fatalf("calendar_id = %q", cfg.Calendar.CalendarID)
	}
	if !cfg.Triggers.Push.Enabled || !cfg.Triggers.Poll.Enabled {
		t.Fatalf("triggers = %+v", cfg.Triggers)
	}
	if cfg.Ledger.Driver != "file" {
		t.Fatalf("ledger.driver = %q", cfg.Ledger.Driver)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", validYAML+"\nsurprise: true\n")

	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
  "calendar": {"calendar_id": "primary"},
  "triggers": {"push": {"enabled": false}, "poll": {"enabled": true}},
  "parser": {},
  "ledger": {"driver": "sqlite", "path": "ledger.db"},
  "executor": {"base_url": "http://localhost:8000"},
  "notify": {},
  "logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}}
}`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.Driver != "sqlite" {
		t.Fatalf("ledger.driver = %q", cfg.Ledger.Driver)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	base := func() *Config {
		return &Config{
			Calendar: CalendarConfig{CalendarID: "primary"},
			Triggers: TriggerConfig{Poll: PollConfig{Enabled: true}},
			Ledger:   LedgerConfig{Driver: "file", Path: "ledger.json"},
			Executor: ExecutorConfig{BaseURL: "http://localhost:8000"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing calendar id", mutate: func(c *Config) { c.Calendar.CalendarID = "" }},
		{name: "no trigger enabled", mutate: func(c *Config) { c.Triggers.Poll.Enabled = false }},
		{name: "missing ledger driver", mutate: func(c *Config) { c.Ledger.Driver = "" }},
		{name: "unknown ledger driver", mutate: func(c *Config) { c.Ledger.Driver = "dynamodb" }},
		{name: "file driver without path", mutate: func(c *Config) { c.Ledger.Path = "" }},
		{name: "redis without addr", mutate: func(c *Config) { c.Ledger.Driver = "redis"; c.Ledger.Addr = "" }},
		{name: "missing executor url", mutate: func(c *Config) { c.Executor.BaseURL = "" }},
		{name: "bad duration", mutate: func(c *Config) { c.Calendar.Lookahead = "2 minutes" }},
		{name: "negative quantity", mutate: func(c *Config) { c.Parser.DefaultQuantity = -1 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationField("x", "2m")
	if err != nil || d != 2*time.Minute {
		t.Fatalf("got %v, %v", d, err)
	}
	d, err = ParseDurationField("x", "")
	if err != nil || d != 0 {
		t.Fatalf("empty: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if _, err := ParseDurationField("x", "5 seconds"); err == nil {
		t.Fatal("expected error for bad format")
	}

	d, err = ParseDurationOrDefault("x", "", 24*time.Hour)
	if err != nil || d != 24*time.Hour {
		t.Fatalf("default: got %v, %v", d, err)
	}
	// Explicit zero also means "use the default".
	d, err = ParseDurationOrDefault("x", "0s", 24*time.Hour)
	if err != nil || d != 24*time.Hour {
		t.Fatalf("explicit zero: got %v, %v", d, err)
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"calendar":{"calendar_id":"a"}} {"extra":1}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}
