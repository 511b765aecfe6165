package dispatcher

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tradecal/internal/model"
)

// Correlation ties an execution back to its originating calendar event.
type Correlation struct {
	EventID    string
	EventTitle string
}

// Outcome is the execution service's synchronous answer.
type Outcome struct {
	Status  string `json:"status"` // "simulated" | "executed" | "error"
	Message string `json:"message"`
	OrderID string `json:"orderId,omitempty"`
}

const (
	StatusSimulated = "simulated"
	StatusExecuted  = "executed"
	StatusError     = "error"
)

// Executor is the downstream execution service.
type Executor interface {
	SubmitTrade(ctx context.Context, in model.TradeInstruction, corr Correlation) (Outcome, error)
	SubmitBatch(ctx context.Context, batch model.TradeBatch, corr Correlation) (Outcome, error)
}

// ClientConfig configures the HTTP executor client.
type ClientConfig struct {
	BaseURL string
	Secret  string        // HMAC-SHA256 request signing; empty disables
	Timeout time.Duration // per-request; default 30s
}

// Client talks to the execution service over HTTP.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

var _ Executor = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, client: &http.Client{}}
}

type tradeRequest struct {
	Symbol             string `json:"symbol"`
	Action             string `json:"action"`
	Quantity           int    `json:"quantity"`
	CorrelationEventID string `json:"correlationEventId"`
	CorrelationTitle   string `json:"correlationEventTitle"`
}

type batchRequest struct {
	RawTradesText      string `json:"rawTradesText"`
	CorrelationEventID string `json:"correlationEventId"`
	CorrelationTitle   string `json:"correlationEventTitle"`
}

func (c *Client) SubmitTrade(ctx context.Context, in model.TradeInstruction, corr Correlation) (Outcome, error) {
	return c.post(ctx, "/trade", tradeRequest{
		Symbol:             in.Symbol,
		Action:             string(in.Action),
		Quantity:           in.Quantity,
		CorrelationEventID: corr.EventID,
		CorrelationTitle:   corr.EventTitle,
	})
}

func (c *Client) SubmitBatch(ctx context.Context, batch model.TradeBatch, corr Correlation) (Outcome, error) {
	return c.post(ctx, "/trade/batch", batchRequest{
		RawTradesText:      batch.RawText,
		CorrelationEventID: corr.EventID,
		CorrelationTitle:   corr.EventTitle,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) (Outcome, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tradecal-Attempt-ID", uuid.NewString())
	if c.cfg.Secret != "" {
		req.Header.Set("X-Tradecal-Signature", computeSignature(c.cfg.Secret, body))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Outcome{}, fmt.Errorf("decode response (http %d): %w", resp.StatusCode, err)
	}
	if out.Status == "" {
		out.Status = StatusError
		if out.Message == "" {
			out.Message = fmt.Sprintf("execution service returned http %d with no status", resp.StatusCode)
		}
	}
	return out, nil
}

func computeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature is for the execution service to verify incoming requests.
func VerifySignature(secret string, body []byte, signature string) bool {
	expected := computeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
