package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	logx "tradecal/pkg/logx"
)

func TestServerHandlerRoutes(t *testing.T) {
	t.Parallel()
	h := NewServer("", logx.Nop()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("/metrics returned an empty body")
	}
}
