package parser

import (
	"regexp"
	"strconv"
	"strings"

	"tradecal/internal/model"
)

// Defaults feed the bare-ACTION rule. A zero Symbol disables that rule.
type Defaults struct {
	Symbol   string
	Quantity int
}

// Kind classifies a parse result.
type Kind int

const (
	KindNone Kind = iota
	KindSingle
	KindBatch
)

// Result is the outcome of parsing one event's text.
type Result struct {
	Kind        Kind
	Instruction model.TradeInstruction // valid when Kind == KindSingle
	Batch       model.TradeBatch       // valid when Kind == KindBatch
}

func (r Result) None() bool { return r.Kind == KindNone }

var (
	// Rule 1: ACTION QUANTITY SYMBOL ("BUY 5 AAPL")
	reActionQtySymbol = regexp.MustCompile(`(?i)\b(BUY|SELL)\s+(\d{1,5})\s+([A-Za-z]{1,5})\b`)
	// Rule 2: SYMBOL ACTION QUANTITY ("AAPL BUY 5")
	reSymbolActionQty = regexp.MustCompile(`(?i)\b([A-Za-z]{1,5})\s+(BUY|SELL)\s+(\d{1,5})\b`)
	// Action keyword anywhere; used for batch detection only.
	reBareAction = regexp.MustCompile(`(?i)\b(BUY|SELL)\b`)
	// Rule 3: bare ACTION closing the text, quantity/symbol from defaults.
	// Trailing punctuation is fine; a trailing token is not.
	reBareActionOnly = regexp.MustCompile(`(?i)\b(BUY|SELL)\b[\s.!?]*$`)

	reSeparators = regexp.MustCompile(`[,;\n]`)
)

type Parser struct {
	defaults Defaults
}

func New(d Defaults) *Parser {
	if d.Quantity <= 0 {
		d.Quantity = 1
	}
	d.Symbol = strings.ToUpper(strings.TrimSpace(d.Symbol))
	return &Parser{defaults: d}
}

// Parse applies batch detection, then the single-instruction grammar.
//
// A text is a batch when it contains at least one separator (comma,
// semicolon, newline) AND at least two action keywords. Batch segments that
// fail to parse are dropped; a batch with zero parsed segments collapses to
// KindNone.
func (p *Parser) Parse(text string) Result {
	if p.isBatch(text) {
		var batch model.TradeBatch
		batch.RawText = text
		for _, seg := range reSeparators.Split(text, -1) {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			if in, ok := p.parseOne(seg); ok {
				batch.Instructions = append(batch.Instructions, in)
			}
		}
		if len(batch.Instructions) == 0 {
			return Result{Kind: KindNone}
		}
		return Result{Kind: KindBatch, Batch: batch}
	}

	in, ok := p.parseOne(text)
	if !ok {
		return Result{Kind: KindNone}
	}
	return Result{Kind: KindSingle, Instruction: in}
}

func (p *Parser) isBatch(text string) bool {
	if !strings.ContainsAny(text, ",;\n") {
		return false
	}
	return len(reBareAction.FindAllString(text, -1)) >= 2
}

// parseOne runs the matchers in priority order; the first that yields a
// valid instruction wins.
func (p *Parser) parseOne(text string) (model.TradeInstruction, bool) {
	for _, m := range []func(string) (model.TradeInstruction, bool){
		p.matchActionQtySymbol,
		p.matchSymbolActionQty,
		p.matchBareAction,
	} {
		if in, ok := m(text); ok {
			return in, true
		}
	}
	return model.TradeInstruction{}, false
}

func (p *Parser) matchActionQtySymbol(text string) (model.TradeInstruction, bool) {
	m := reActionQtySymbol.FindStringSubmatch(text)
	if m == nil {
		return model.TradeInstruction{}, false
	}
	return buildInstruction(m[1], m[2], m[3])
}

func (p *Parser) matchSymbolActionQty(text string) (model.TradeInstruction, bool) {
	m := reSymbolActionQty.FindStringSubmatch(text)
	if m == nil {
		return model.TradeInstruction{}, false
	}
	return buildInstruction(m[2], m[3], m[1])
}

func (p *Parser) matchBareAction(text string) (model.TradeInstruction, bool) {
	if p.defaults.Symbol == "" {
		return model.TradeInstruction{}, false
	}
	// Text that spelled out a quantity or symbol and failed rules 1-2 must
	// stay "no instruction", never collapse into a default trade. Any digit
	// in the text, or any token after the keyword, disqualifies the bare form.
	if strings.ContainsAny(text, "0123456789") {
		return model.TradeInstruction{}, false
	}
	m := reBareActionOnly.FindStringSubmatch(text)
	if m == nil {
		return model.TradeInstruction{}, false
	}
	action, _ := model.ParseAction(m[1])
	in := model.TradeInstruction{
		Symbol:   p.defaults.Symbol,
		Action:   action,
		Quantity: p.defaults.Quantity,
	}
	if in.Validate() != nil {
		return model.TradeInstruction{}, false
	}
	return in, true
}

func buildInstruction(rawAction, rawQty, rawSymbol string) (model.TradeInstruction, bool) {
	action, ok := model.ParseAction(rawAction)
	if !ok {
		return model.TradeInstruction{}, false
	}
	// An action keyword never fills the SYMBOL position ("SELL BUY 5" is
	// not a trade of the SELL ticker).
	if _, isKeyword := model.ParseAction(rawSymbol); isKeyword {
		return model.TradeInstruction{}, false
	}
	qty, err := strconv.Atoi(rawQty)
	if err != nil || qty <= 0 {
		return model.TradeInstruction{}, false
	}
	in := model.TradeInstruction{
		Symbol:   strings.ToUpper(rawSymbol),
		Action:   action,
		Quantity: qty,
	}
	if in.Validate() != nil {
		return model.TradeInstruction{}, false
	}
	return in, true
}
