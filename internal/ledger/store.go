package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "tradecal/pkg/logx"
)

// Store is the minimal key-value API the ledger persists through.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// StoreConfig configures the backing store.
//
// Driver values:
//   - "file": atomic JSON snapshot on local disk (dependency-free)
//   - "sqlite": SQLite database file
//   - "redis": external Redis
type StoreConfig struct {
	Driver      string
	Path        string        // file/sqlite
	Addr        string        // redis
	Password    string        // redis
	DB          int           // redis
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// OpenStore initializes the configured store.
func OpenStore(cfg StoreConfig, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	default:
		return nil, errors.New("unknown ledger store driver: " + cfg.Driver)
	}
}
