package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/ecovarrubiasl/strongpack.2/internal/common"
)

// Limiter decides whether an event for key fits in max events per window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter   Limiter
	Config    Config
	OnError   func(error)
	OnLimited func(*http.Request)
}

// ClientIPKey keys limits by client address.
func ClientIPKey(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + common.ClientIP(r)
	}
}

// Middleware rejects requests over the limit with 429 RATE_LIMITED. Limiter
// errors are reported through OnError and the request proceeds.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil || h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		setLimitHeaders(w.Header(), max(h.Config.Max, 0), remaining, resetAt)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := retryAfter(resetAt)
		w.Header().Set("Retry-After", strconv.Itoa(wait))
		if h.OnLimited != nil {
			h.OnLimited(r)
		}
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{"retry_after": wait})
	})
}

func setLimitHeaders(h http.Header, limit, remaining int, resetAt time.Time) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
}

// retryAfter rounds the wait up to whole seconds, never below zero.
func retryAfter(resetAt time.Time) int {
	d := time.Until(resetAt)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
