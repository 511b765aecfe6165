package config

// Config is the whole daemon configuration.
//
// It is parsed from YAML or JSON (strict: unknown keys are rejected).
// All durations are Go duration strings (e.g. "500ms", "2m", "24h").
type Config struct {
	Calendar CalendarConfig `json:"calendar"`
	Triggers TriggerConfig  `json:"triggers"`
	Parser   ParserConfig   `json:"parser"`
	Ledger   LedgerConfig   `json:"ledger"`
	Executor ExecutorConfig `json:"executor"`
	Notify   NotifyConfig   `json:"notify"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
}

// CalendarConfig selects the calendar to scan and how to authenticate.
//
// ClientID/ClientSecret may be left empty if a credentials.json file is
// present next to the binary (standard Google OAuth desktop flow).
type CalendarConfig struct {
	CalendarID   string `json:"calendar_id"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	TokenFile    string `json:"token_file,omitempty"` // default: "token.json"

	// WideWindow is the half-width of the full-rescan window used by the
	// push path (the scan covers now-WideWindow .. now+WideWindow).
	// Default: "24h".
	WideWindow string `json:"wide_window,omitempty"`

	// Lookahead bounds the poll path's narrow window (now .. now+Lookahead).
	// Events starting later than that are skipped even if a broader query
	// returns them. Default: "2m".
	Lookahead string `json:"lookahead,omitempty"`
}

// TriggerConfig controls the two invocation paths.
type TriggerConfig struct {
	Push PushConfig `json:"push"`
	Poll PollConfig `json:"poll"`
}

// PushConfig controls the calendar-change webhook receiver.
//
// CallbackURL is the public HTTPS address Google will POST to; when set, the
// adapter registers (and renews) a watch channel for it. ChannelToken, if
// set, must match the X-Goog-Channel-Token header of incoming pushes.
type PushConfig struct {
	Enabled      bool   `json:"enabled"`
	Addr         string `json:"addr,omitempty"` // default: ":8080"
	CallbackURL  string `json:"callback_url,omitempty"`
	ChannelToken string `json:"channel_token,omitempty"`

	// ChannelTTL is how long a registered watch channel lives before the
	// renewal loop replaces it. Default: "168h" (7 days).
	ChannelTTL string `json:"channel_ttl,omitempty"`
}

// PollConfig controls the fixed-interval scan.
type PollConfig struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval,omitempty"` // default: "5m"
}

// ParserConfig holds the fallbacks for the bare-ACTION grammar rule.
//
// An empty DefaultSymbol disables the bare-ACTION rule entirely: a lone
// "BUY" in an event then parses as no instruction.
type ParserConfig struct {
	DefaultSymbol   string `json:"default_symbol,omitempty"`
	DefaultQuantity int    `json:"default_quantity,omitempty"` // default: 1
}

// LedgerConfig configures the dispatched-event ledger and its backing store.
//
// Driver values:
//   - "file": atomic JSON snapshot on local disk
//   - "sqlite": SQLite database file
//   - "redis": external Redis
type LedgerConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path,omitempty"`         // file/sqlite
	Addr        string `json:"addr,omitempty"`         // redis, e.g. "localhost:6379"
	Password    string `json:"password,omitempty"`     // redis
	DB          int    `json:"db,omitempty"`           // redis
	Key         string `json:"key,omitempty"`          // default: "tradecal:ledger"
	Capacity    int    `json:"capacity,omitempty"`     // default: 100
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite
}

// ExecutorConfig points at the downstream execution service.
type ExecutorConfig struct {
	BaseURL string `json:"base_url"`
	Secret  string `json:"secret,omitempty"`  // HMAC request signing; empty disables
	Timeout string `json:"timeout,omitempty"` // default: "30s"
}

// NotifyConfig configures outcome reporting channels.
// Channels with empty credentials are simply not registered.
type NotifyConfig struct {
	RatePerSec int                  `json:"rate_per_sec,omitempty"` // default: 3
	Discord    DiscordNotifyConfig  `json:"discord,omitempty"`
	Telegram   TelegramNotifyConfig `json:"telegram,omitempty"`
}

type DiscordNotifyConfig struct {
	WebhookURL string `json:"webhook_url,omitempty"`
}

type TelegramNotifyConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig enables the Prometheus sink. /metrics is served on the push
// trigger's HTTP server when that is enabled; otherwise a standalone listener
// on Addr serves it.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // standalone listener, default ":9091"
}
