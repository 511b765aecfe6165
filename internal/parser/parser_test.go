package parser

import (
	"testing"

	"tradecal/internal/model"
)

func TestParseSingleVariants(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	tests := []struct {
		name string
		text string
		want model.TradeInstruction
	}{
		{name: "action qty symbol", text: "BUY 5 AAPL", want: model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 5}},
		{name: "lowercase", text: "sell 3 msft", want: model.TradeInstruction{Symbol: "MSFT", Action: model.ActionSell, Quantity: 3}},
		{name: "symbol action qty", text: "AAPL BUY 5", want: model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 5}},
		{name: "embedded in prose", text: "Reminder: BUY 10 TSLA before close", want: model.TradeInstruction{Symbol: "TSLA", Action: model.ActionBuy, Quantity: 10}},
		{name: "three letter symbol", text: "BUY 1 BYD", want: model.TradeInstruction{Symbol: "BYD", Action: model.ActionBuy, Quantity: 1}},
		{name: "first rule wins", text: "GME BUY 2 AMC", want: model.TradeInstruction{Symbol: "AMC", Action: model.ActionBuy, Quantity: 2}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if got.Kind != KindSingle {
				t.Fatalf("Parse(%q).Kind = %v, want KindSingle", tt.text, got.Kind)
			}
			if got.Instruction != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.text, got.Instruction, tt.want)
			}
		})
	}
}

func TestParseNone(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	tests := []struct {
		name string
		text string
	}{
		{name: "no keywords", text: "Lunch with Sam"},
		{name: "keyword without trade", text: "discuss the buyout"},
		{name: "bare action no default symbol", text: "BUY"},
		{name: "zero quantity", text: "BUY 0 AAPL"},
		{name: "symbol too long", text: "BUY 5 ALPHABET"},
		{name: "keyword as symbol", text: "SELL BUY 5"},
		{name: "empty", text: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Parse(tt.text); !got.None() {
				t.Fatalf("Parse(%q) = %+v, want KindNone", tt.text, got)
			}
		})
	}
}

func TestParseBareActionWithDefaults(t *testing.T) {
	t.Parallel()
	p := New(Defaults{Symbol: "spy", Quantity: 2})

	got := p.Parse("Time to SELL")
	if got.Kind != KindSingle {
		t.Fatalf("Kind = %v, want KindSingle", got.Kind)
	}
	want := model.TradeInstruction{Symbol: "SPY", Action: model.ActionSell, Quantity: 2}
	if got.Instruction != want {
		t.Fatalf("Instruction = %+v, want %+v", got.Instruction, want)
	}
}

func TestParseBareActionRejectsMalformedTrades(t *testing.T) {
	t.Parallel()
	p := New(Defaults{Symbol: "SPY", Quantity: 2})

	// Text that attempted a quantity or symbol and failed the structured
	// rules must stay unparsed, not fall through to a default trade.
	tests := []struct {
		name string
		text string
	}{
		{name: "zero quantity", text: "BUY 0 AAPL"},
		{name: "quantity too large", text: "BUY 999999 AAPL"},
		{name: "symbol too long", text: "BUY 5 ALPHABET"},
		{name: "trailing token", text: "sell everything"},
		{name: "reversed with digits", text: "AAPL 0 BUY"},
		{name: "digits elsewhere", text: "meeting at 3 then SELL"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Parse(tt.text); !got.None() {
				t.Fatalf("Parse(%q) = %+v, want KindNone", tt.text, got)
			}
		})
	}
}

func TestParseBatchSegmentsNeverDefaultWithDefaults(t *testing.T) {
	t.Parallel()
	p := New(Defaults{Symbol: "SPY", Quantity: 2})

	got := p.Parse("BUY 10 TSLA; sell everything; SELL 5 AAPL")
	if got.Kind != KindBatch {
		t.Fatalf("Kind = %v, want KindBatch", got.Kind)
	}
	if len(got.Batch.Instructions) != 2 {
		t.Fatalf("len(Instructions) = %d, want 2: %+v", len(got.Batch.Instructions), got.Batch.Instructions)
	}
	for _, in := range got.Batch.Instructions {
		if in.Symbol == "SPY" {
			t.Fatalf("malformed segment produced a default trade: %+v", in)
		}
	}
}

func TestParseDefaultQuantityFloor(t *testing.T) {
	t.Parallel()
	p := New(Defaults{Symbol: "SPY"})

	got := p.Parse("BUY")
	if got.Kind != KindSingle {
		t.Fatalf("Kind = %v, want KindSingle", got.Kind)
	}
	if got.Instruction.Quantity != 1 {
		t.Fatalf("Quantity = %d, want 1", got.Instruction.Quantity)
	}
}

func TestParseBatch(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	got := p.Parse("BUY 10 TSLA, SELL 5 AAPL")
	if got.Kind != KindBatch {
		t.Fatalf("Kind = %v, want KindBatch", got.Kind)
	}
	if len(got.Batch.Instructions) != 2 {
		t.Fatalf("len(Instructions) = %d, want 2", len(got.Batch.Instructions))
	}
	if got.Batch.Instructions[0].Symbol != "TSLA" || got.Batch.Instructions[1].Symbol != "AAPL" {
		t.Fatalf("segment order not preserved: %+v", got.Batch.Instructions)
	}
	if got.Batch.RawText != "BUY 10 TSLA, SELL 5 AAPL" {
		t.Fatalf("RawText = %q", got.Batch.RawText)
	}
}

func TestParseBatchDropsBadSegments(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	got := p.Parse("BUY 10 TSLA; sell everything; SELL 5 AAPL")
	if got.Kind != KindBatch {
		t.Fatalf("Kind = %v, want KindBatch", got.Kind)
	}
	if len(got.Batch.Instructions) != 2 {
		t.Fatalf("len(Instructions) = %d, want 2: %+v", len(got.Batch.Instructions), got.Batch.Instructions)
	}
}

func TestParseBatchDetection(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	// Separator but only one action keyword: not a batch.
	got := p.Parse("BUY 5 AAPL, then lunch")
	if got.Kind != KindSingle {
		t.Fatalf("Kind = %v, want KindSingle", got.Kind)
	}

	// Two actions but no separator: first match wins as a single.
	got = p.Parse("BUY 5 AAPL and SELL 3 MSFT")
	if got.Kind != KindSingle {
		t.Fatalf("Kind = %v, want KindSingle", got.Kind)
	}
	if got.Instruction.Symbol != "AAPL" {
		t.Fatalf("Symbol = %q, want AAPL", got.Instruction.Symbol)
	}

	// Newline counts as a separator.
	got = p.Parse("BUY 5 AAPL\nSELL 3 MSFT")
	if got.Kind != KindBatch {
		t.Fatalf("Kind = %v, want KindBatch", got.Kind)
	}
}

func TestParseBatchAllSegmentsBadCollapses(t *testing.T) {
	t.Parallel()
	p := New(Defaults{})

	got := p.Parse("buy low, sell high")
	if !got.None() {
		t.Fatalf("Parse = %+v, want KindNone", got)
	}
}
