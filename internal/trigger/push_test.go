package trigger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	logx "tradecal/pkg/logx"
)

func newTestServer(token string) *PushServer {
	return NewPushServer(PushConfig{ChannelToken: token}, nil, logx.Nop())
}

func TestPushHandshakeAckedWithoutRescan(t *testing.T) {
	t.Parallel()
	s := newTestServer("")
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(headerResourceState, stateSync)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(s.kicks) != 0 {
		t.Fatal("handshake queued a rescan")
	}
}

func TestPushChangeQueuesRescan(t *testing.T) {
	t.Parallel()
	s := newTestServer("")
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(headerResourceState, "exists")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(s.kicks) != 1 {
		t.Fatalf("kicks = %d, want 1", len(s.kicks))
	}
}

func TestPushBurstCoalesces(t *testing.T) {
	t.Parallel()
	s := newTestServer("")
	h := s.Handler()

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(headerResourceState, "exists")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("push %d: status = %d", i, rr.Code)
		}
	}
	if len(s.kicks) != 1 {
		t.Fatalf("kicks = %d, want 1 (coalesced)", len(s.kicks))
	}
}

func TestPushTokenCheck(t *testing.T) {
	t.Parallel()
	s := newTestServer("expected")
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(headerResourceState, "exists")
	req.Header.Set(headerChannelToken, "wrong")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
	if len(s.kicks) != 0 {
		t.Fatal("rejected push queued a rescan")
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(headerResourceState, "exists")
	req.Header.Set(headerChannelToken, "expected")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestPushMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s := newTestServer("")
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := newTestServer("")
	h := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}
