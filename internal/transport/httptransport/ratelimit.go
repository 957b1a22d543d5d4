package httptransport

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window per-IP limiter. It mirrors the draft
// RateLimit header fields: Limit, Remaining, and Reset (seconds until the
// window rolls over) are set on every response, not only on rejections.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*rateWindow
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Middleware counts the request against the caller's window and rejects
// with 429 once the limit is spent.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			remaining, reset, allowed := rl.take(c.RealIP())

			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(rl.limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(reset))

			if !allowed {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":   "Too many requests",
					"message": "Please wait a second before making another request",
				})
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) take(ip string) (remaining, reset int, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[ip]
	if !ok || !now.Before(w.resetAt) {
		if len(rl.clients) >= 10_000 {
			rl.sweep(now)
		}
		w = &rateWindow{resetAt: now.Add(rl.window)}
		rl.clients[ip] = w
	}

	reset = int(w.resetAt.Sub(now).Round(time.Second) / time.Second)
	if w.count >= rl.limit {
		return 0, reset, false
	}
	w.count++
	return rl.limit - w.count, reset, true
}

// sweep drops expired windows, called under the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	for ip, w := range rl.clients {
		if !now.Before(w.resetAt) {
			delete(rl.clients, ip)
		}
	}
}
