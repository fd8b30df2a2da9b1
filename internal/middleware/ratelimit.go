package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/latticekit/api/internal/model"
)

// RateLimitConfig tunes the limiter. A zero Rate selects the default of 100
// requests per minute with a burst of 20; an explicit Rate with Burst 0
// means exactly no burst headroom. Cleanup defaults to a five minute idle
// sweep.
type RateLimitConfig struct {
	Rate    int
	Window  time.Duration
	Burst   int
	Cleanup time.Duration
}

// RateLimiter is a token-bucket limiter with one bucket per caller key.
// Buckets are created lazily and swept once they sit idle past two windows.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     int
	window   time.Duration
	burst    int
	cleanup  time.Duration
	stopChan chan struct{}
}

// bucket tracks remaining tokens for one caller. lastReset doubles as the
// idle marker for the sweep.
type bucket struct {
	tokens    int
	lastReset time.Time
}

// refill credits tokens proportional to time elapsed since the last reset,
// capped at the bucket's capacity.
func (b *bucket) refill(now time.Time, rate, capacity int, window time.Duration) {
	elapsed := now.Sub(b.lastReset)
	if elapsed >= window {
		b.tokens = capacity
		b.lastReset = now
		return
	}

	earned := int(float64(rate) * (float64(elapsed) / float64(window)))
	if earned == 0 {
		return
	}
	b.tokens += earned
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastReset = now
}

// take spends one token if any remain.
func (b *bucket) take() bool {
	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// NewRateLimiter creates a limiter and starts its idle-bucket sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	// Burst defaults only alongside Rate: a caller configuring an explicit
	// rate with Burst 0 gets exactly that capacity.
	if cfg.Rate == 0 {
		cfg.Rate = 100
		if cfg.Burst == 0 {
			cfg.Burst = 20
		}
	}
	if cfg.Burst < 0 {
		cfg.Burst = 0
	}
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     cfg.Rate,
		window:   cfg.Window,
		burst:    cfg.Burst,
		cleanup:  cfg.Cleanup,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the sweeper goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopChan)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window * 2)
	for key, b := range rl.buckets {
		if b.lastReset.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

// Allow spends a token for key, reporting whether the request may proceed,
// how many tokens remain, and when the bucket next resets.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, resetTime time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	capacity := rl.rate + rl.burst

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, lastReset: now}
		rl.buckets[key] = b
	} else {
		b.refill(now, rl.rate, capacity, rl.window)
	}

	return b.take(), b.tokens, b.lastReset.Add(rl.window)
}

// RateLimit applies the limiter to every request except the health probes;
// orchestrator traffic must never be throttled. Authenticated callers get a
// per-user bucket, anonymous callers share one per client IP.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}

			key := GetUserID(r.Context())
			if key == "" {
				key = ClientIP(r)
			}

			allowed, remaining, resetTime := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				WriteError(w, r, model.NewRateLimitError(retryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
