// Package parser turns free calendar-event text into trade instructions.
//
// The grammar is an ordered list of structural matchers evaluated
// first-match-wins; a text that matches none of them is "no instruction",
// which is a normal outcome, not an error.
package parser
