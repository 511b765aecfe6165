package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tradecal/internal/model"
	logx "tradecal/pkg/logx"
)

const (
	// DefaultCapacity bounds the ledger; FIFO eviction keeps it there.
	DefaultCapacity = 100

	DefaultKey = "tradecal:ledger"

	// OutcomeDispatched is the outcome tag written at mark time. Marking
	// happens before the downstream call (optimistic pre-commit), so this is
	// all that is knowable when the record is appended.
	OutcomeDispatched = "dispatched"
)

// Config tunes the ledger itself (the store has its own StoreConfig).
type Config struct {
	Key      string
	Capacity int
}

// Ledger is the bounded, persisted set of event ids already dispatched.
//
// The whole ledger is serialized as one JSON array under a single store key:
// the store collaborator is a plain string get/set, and at capacity 100 the
// value stays small.
//
// The mutex only serializes this process against itself. Overlapping
// invocations in other processes are, by design, guarded by nothing stronger
// than mark-before-dispatch ordering.
type Ledger struct {
	store    Store
	key      string
	capacity int
	log      logx.Logger
	clock    func() time.Time

	mu sync.Mutex
}

func New(store Store, cfg Config, log logx.Logger) *Ledger {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Ledger{
		store:    store,
		key:      cfg.Key,
		capacity: cfg.Capacity,
		log:      log,
		clock:    time.Now,
	}
}

// Has reports whether eventID was already marked dispatched.
func (l *Ledger) Has(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if r.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

// MarkDispatched appends an execution record for eventID.
//
// It is idempotent: re-marking a present id is a no-op that preserves the
// original record. If the append pushes the ledger past capacity, the oldest
// entries are evicted first until it fits.
func (l *Ledger) MarkDispatched(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load(ctx)
	if err != nil {
		return fmt.Errorf("ledger load: %w", err)
	}
	for _, r := range records {
		if r.EventID == eventID {
			return nil
		}
	}
	records = append(records, model.ExecutionRecord{
		EventID: eventID,
		At:      l.clock().UTC(),
		Outcome: OutcomeDispatched,
	})
	if n := len(records) - l.capacity; n > 0 {
		records = records[n:]
	}
	return l.save(ctx, records)
}

// Clear empties the ledger. Operational reset only: the next scan will
// re-dispatch anything still in a window.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, l.key)
}

// List returns the current records, oldest first.
func (l *Ledger) List(ctx context.Context) ([]model.ExecutionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Ledger) load(ctx context.Context) ([]model.ExecutionRecord, error) {
	raw, ok, err := l.store.Get(ctx, l.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var records []model.ExecutionRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("ledger decode: %w", err)
	}
	return records, nil
}

func (l *Ledger) save(ctx context.Context, records []model.ExecutionRecord) error {
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, l.key, string(b))
}
