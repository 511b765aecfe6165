package model

import (
	"fmt"
	"strings"
	"time"
)

// Action is a trade direction.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ParseAction normalizes a raw token into an Action.
func ParseAction(s string) (Action, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return ActionBuy, true
	case "SELL":
		return ActionSell, true
	default:
		return "", false
	}
}

func (a Action) Valid() bool { return a == ActionBuy || a == ActionSell }

// CalendarEvent is a read-only view of one event from the calendar service.
// ID is opaque, stable, and unique per event.
type CalendarEvent struct {
	ID          string
	Title       string
	Description string
	Start       time.Time
}

// Text returns the combined title+description the parser operates on.
func (e CalendarEvent) Text() string {
	if e.Description == "" {
		return e.Title
	}
	return e.Title + "\n" + e.Description
}

// TradeInstruction is one parsed trade. Quantity is always > 0 and Symbol is
// 1-5 letters by the time a value leaves the parser.
type TradeInstruction struct {
	Symbol   string
	Action   Action
	Quantity int
}

func (t TradeInstruction) Validate() error {
	if !t.Action.Valid() {
		return fmt.Errorf("invalid action %q", string(t.Action))
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", t.Quantity)
	}
	n := len(t.Symbol)
	if n < 1 || n > 5 {
		return fmt.Errorf("symbol must be 1-5 letters, got %q", t.Symbol)
	}
	for _, r := range t.Symbol {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("symbol must be uppercase letters, got %q", t.Symbol)
		}
	}
	return nil
}

func (t TradeInstruction) String() string {
	return fmt.Sprintf("%s %d %s", t.Action, t.Quantity, t.Symbol)
}

// TradeBatch is the ordered set of instructions derived from a single event
// whose text encoded multiple trades, plus the raw text it came from.
type TradeBatch struct {
	Instructions []TradeInstruction
	RawText      string
}

// ExecutionRecord marks one calendar event as dispatched.
//
// The outcome tag reflects what was known at mark time; mark happens before
// the downstream call, so it never captures the downstream result.
type ExecutionRecord struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
	Outcome string    `json:"outcome"`
}

// Window is a half-open scan range over event start times.
type Window struct {
	Start time.Time
	End   time.Time
}

// WideWindow covers now±half: the full-rescan range used by the push path,
// which learns only that "something changed".
func WideWindow(now time.Time, half time.Duration) Window {
	return Window{Start: now.Add(-half), End: now.Add(half)}
}

// NarrowWindow covers now..now+lookahead: the poll path's range for events
// about to start.
func NarrowWindow(now time.Time, lookahead time.Duration) Window {
	return Window{Start: now, End: now.Add(lookahead)}
}

func (w Window) String() string {
	return fmt.Sprintf("[%s .. %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
