// Package calendar reads candidate events from the calendar service.
//
// The adapter is read-only and keyword-prefiltered: only events whose
// title+description mention BUY, SELL, or TRADE are candidates. It also
// manages the push-notification watch channel, since Google's pushes carry
// no event payload and merely tell us to rescan.
package calendar
