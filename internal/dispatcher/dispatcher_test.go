package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradecal/internal/metrics"
	"tradecal/internal/model"
	"tradecal/internal/notify"
	logx "tradecal/pkg/logx"
)

func TestClientSubmitTrade(t *testing.T) {
	t.Parallel()
	const secret = "s3cret"

	var gotPath, gotSig, gotAttempt string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSig = r.Header.Get("X-Tradecal-Signature")
		gotAttempt = r.Header.Get("X-Tradecal-Attempt-ID")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(Outcome{Status: StatusExecuted, Message: "filled", OrderID: "42"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Secret: secret})
	out, err := c.SubmitTrade(context.Background(),
		model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 5},
		Correlation{EventID: "ev-1", EventTitle: "BUY 5 AAPL"})
	if err != nil {
		t.Fatalf("SubmitTrade: %v", err)
	}
	if out.Status != StatusExecuted || out.OrderID != "42" {
		t.Fatalf("outcome = %+v", out)
	}

	if gotPath != "/trade" {
		t.Fatalf("path = %s, want /trade", gotPath)
	}
	if gotAttempt == "" {
		t.Fatal("missing attempt id header")
	}
	if !VerifySignature(secret, gotBody, gotSig) {
		t.Fatal("signature does not verify")
	}

	var req map[string]any
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if req["symbol"] != "AAPL" || req["action"] != "BUY" || req["quantity"] != float64(5) {
		t.Fatalf("payload = %v", req)
	}
	if req["correlationEventId"] != "ev-1" {
		t.Fatalf("correlation = %v", req["correlationEventId"])
	}
}

func TestClientSubmitBatch(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(Outcome{Status: StatusSimulated, Message: "dry run"})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	out, err := c.SubmitBatch(context.Background(),
		model.TradeBatch{RawText: "BUY 10 TSLA, SELL 5 AAPL"},
		Correlation{EventID: "ev-1"})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if out.Status != StatusSimulated {
		t.Fatalf("outcome = %+v", out)
	}
	if gotPath != "/trade/batch" {
		t.Fatalf("path = %s, want /trade/batch", gotPath)
	}
	if !strings.Contains(string(gotBody), "BUY 10 TSLA, SELL 5 AAPL") {
		t.Fatalf("raw text missing from payload: %s", gotBody)
	}
}

func TestClientEmptyStatusBecomesError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	out, err := c.SubmitTrade(context.Background(),
		model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 1}, Correlation{})
	if err != nil {
		t.Fatalf("SubmitTrade: %v", err)
	}
	if out.Status != StatusError {
		t.Fatalf("Status = %q, want %q", out.Status, StatusError)
	}
	if out.Message == "" {
		t.Fatal("expected a synthesized message")
	}
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()
	body := []byte(`{"symbol":"AAPL"}`)
	sig := computeSignature("key", body)
	if !VerifySignature("key", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("other", body, sig) {
		t.Fatal("wrong secret accepted")
	}
	if VerifySignature("key", []byte("tampered"), sig) {
		t.Fatal("tampered body accepted")
	}
}

type stubExec struct {
	out Outcome
	err error
}

func (s stubExec) SubmitTrade(context.Context, model.TradeInstruction, Correlation) (Outcome, error) {
	return s.out, s.err
}

func (s stubExec) SubmitBatch(context.Context, model.TradeBatch, Correlation) (Outcome, error) {
	return s.out, s.err
}

func TestDispatcherReportsOneNotificationPerOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	in := model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 5}

	tests := []struct {
		name      string
		exec      stubExec
		wantLevel notify.Level
	}{
		{name: "executed", exec: stubExec{out: Outcome{Status: StatusExecuted, OrderID: "42"}}, wantLevel: notify.LevelSuccess},
		{name: "simulated", exec: stubExec{out: Outcome{Status: StatusSimulated}}, wantLevel: notify.LevelInfo},
		{name: "rejected", exec: stubExec{out: Outcome{Status: StatusError, Message: "no funds"}}, wantLevel: notify.LevelError},
		{name: "transport error", exec: stubExec{err: errors.New("connection refused")}, wantLevel: notify.LevelError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			notifier := notify.NewService(1000, logx.Nop())
			d := New(tt.exec, notifier, metrics.NoopSink{}, logx.Nop())

			_, err := d.Submit(ctx, in, Correlation{EventID: "ev-1", EventTitle: "BUY 5 AAPL"})
			if (err != nil) != (tt.exec.err != nil) {
				t.Fatalf("err = %v", err)
			}

			hist := notifier.History()
			if len(hist) != 1 {
				t.Fatalf("notifications = %d, want 1", len(hist))
			}
			if hist[0].Level != tt.wantLevel {
				t.Fatalf("level = %s, want %s", hist[0].Level, tt.wantLevel)
			}
			if hist[0].Details["event_id"] != "ev-1" {
				t.Fatalf("details = %v", hist[0].Details)
			}
		})
	}
}

func TestDispatcherFailureMentionsNoRetry(t *testing.T) {
	t.Parallel()
	notifier := notify.NewService(1000, logx.Nop())
	d := New(stubExec{err: errors.New("boom")}, notifier, metrics.NoopSink{}, logx.Nop())

	_, _ = d.Submit(context.Background(),
		model.TradeInstruction{Symbol: "AAPL", Action: model.ActionBuy, Quantity: 1},
		Correlation{EventID: "ev-1"})

	hist := notifier.History()
	if len(hist) != 1 {
		t.Fatalf("notifications = %d, want 1", len(hist))
	}
	if !strings.Contains(hist[0].Message, "manual follow-up required") {
		t.Fatalf("message = %q", hist[0].Message)
	}
}
