package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func limitedEcho(rl *RateLimiter) *echo.Echo {
	e := echo.New()
	e.Use(rl.Middleware())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func doGet(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_HeadersOnEveryResponse(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Minute)
	e := limitedEcho(rl)

	rec := doGet(e, "10.0.0.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("RateLimit-Limit"); got != "3" {
		t.Fatalf("RateLimit-Limit = %q, want 3", got)
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "2" {
		t.Fatalf("RateLimit-Remaining = %q, want 2", got)
	}
	if rec.Header().Get("RateLimit-Reset") == "" {
		t.Fatal("RateLimit-Reset header missing")
	}
}

func TestRateLimiter_BreachReturns429(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Minute)
	e := limitedEcho(rl)

	doGet(e, "10.0.0.2")
	doGet(e, "10.0.0.2")
	rec := doGet(e, "10.0.0.2")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("RateLimit-Remaining"); got != "0" {
		t.Fatalf("RateLimit-Remaining = %q, want 0", got)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Too many requests" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestRateLimiter_WindowsArePerIP(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Minute)
	e := limitedEcho(rl)

	doGet(e, "10.0.0.3")
	if rec := doGet(e, "10.0.0.4"); rec.Code != http.StatusOK {
		t.Fatalf("second IP blocked by first IP's window: %d", rec.Code)
	}
}

func TestRateLimiter_WindowRollsOver(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, time.Minute)
	now := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	e := limitedEcho(rl)

	doGet(e, "10.0.0.5")
	if rec := doGet(e, "10.0.0.5"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 within window, got %d", rec.Code)
	}

	now = now.Add(61 * time.Second)
	if rec := doGet(e, "10.0.0.5"); rec.Code != http.StatusOK {
		t.Fatalf("expected fresh window after rollover, got %d", rec.Code)
	}
}
