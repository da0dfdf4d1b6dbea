package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// The logging wrapper must not hide the hijacker from websocket upgrades.
var _ http.Hijacker = (*responseWriter)(nil)

func TestTimeoutMiddlewarePassesThroughFastResponse(t *testing.T) {
	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	})
	handler := TimeoutMiddleware(time.Second)(fast)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/health", nil))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("header not flushed: %v", rr.Header())
	}
	if !strings.Contains(rr.Body.String(), `"ok":true`) {
		t.Fatalf("body not flushed: %q", rr.Body.String())
	}
}

func TestTimeoutMiddlewareDiscardsLateResponse(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("late"))
		close(finished)
	})
	handler := TimeoutMiddleware(20 * time.Millisecond)(slow)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/model", nil))

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rr.Code)
	}

	// Let the handler finish after the deadline; its write must land in
	// the discarded buffer, never in the client response.
	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("late handler never finished")
	}
	if strings.Contains(rr.Body.String(), "late") {
		t.Fatalf("late write reached the client: %q", rr.Body.String())
	}
}

func TestTimeoutMiddlewareSkipsMonitorRoute(t *testing.T) {
	var gotDeadline bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})
	handler := TimeoutMiddleware(time.Second)(inner)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/ws/monitor", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotDeadline {
		t.Fatal("monitor route must not carry a request deadline")
	}
}
