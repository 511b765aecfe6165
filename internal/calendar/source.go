package calendar

import (
	"context"
	"strings"

	"tradecal/internal/model"
)

// Source provides candidate events within a scan window.
type Source interface {
	CandidateEvents(ctx context.Context, w model.Window) ([]model.CalendarEvent, error)
}

// SourceFunc is a function adapter for Source.
type SourceFunc func(ctx context.Context, w model.Window) ([]model.CalendarEvent, error)

func (f SourceFunc) CandidateEvents(ctx context.Context, w model.Window) ([]model.CalendarEvent, error) {
	return f(ctx, w)
}

// keywords mark an event as a candidate (case-insensitive substring match
// over title+description).
var keywords = []string{"BUY", "SELL", "TRADE"}

// IsCandidate reports whether an event's text mentions any trade keyword.
func IsCandidate(e model.CalendarEvent) bool {
	text := strings.ToUpper(e.Text())
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FilterCandidates applies the adapter-side rules to a raw event list:
// keyword prefilter, and the window cut — an event starting after the
// window's end is dropped even if a broader query returned it. For the poll
// path (end = now+lookahead) that cut is the "about to start" rule; for the
// wide push window it is a no-op in practice. Calendar order is preserved.
func FilterCandidates(events []model.CalendarEvent, w model.Window) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, e := range events {
		if !IsCandidate(e) {
			continue
		}
		if e.Start.After(w.End) {
			continue
		}
		out = append(out, e)
	}
	return out
}
