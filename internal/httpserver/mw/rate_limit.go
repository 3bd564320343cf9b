package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/keep/internal/domain"
	"github.com/MrSnakeDoc/keep/internal/httpserver/respond"
	"github.com/MrSnakeDoc/keep/internal/utils"
)

type RateLimitConfig struct {
	Burst         int
	RefillPerMin  int
	MaxEntries    int
	SweepInterval time.Duration
	IdleTTL       time.Duration
	TrustProxy    bool // resolve IP from proxy headers when true
}

type bucket struct {
	mu       sync.Mutex
	tokens   float64
	refilled time.Time
	seen     time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	rate      float64 // tokens per second
	capacity  float64
	now       func() time.Time
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig, now func() time.Time) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.RefillPerMin < 1 {
		cfg.RefillPerMin = 1
	}
	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerMin) / 60.0,
		capacity:  float64(cfg.Burst),
		now:       now,
		buckets:   make(map[string]*bucket, 1024),
		lastSweep: now(),
	}
}

// key budgets an authenticated caller by identity, so owners sharing an
// address do not starve each other. Anonymous routes fall back to the IP.
func (l *limiter) key(r *http.Request) string {
	if id, ok := domain.IdentityFrom(r.Context()); ok && id.ID != "" {
		return "owner:" + id.ID
	}
	return "ip:" + utils.ClientIP(r, l.cfg.TrustProxy)
}

func (l *limiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval ||
		(l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries) {
		l.sweepLocked(now)
	}
	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.capacity, refilled: now, seen: now}
		l.buckets[key] = b
	}
	return b
}

// take consumes one token. When none is left it returns the seconds until
// the next one.
func (l *limiter) take(key string) (ok bool, remaining, retryAfter int) {
	now := l.now()
	b := l.bucketFor(key, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.refilled = now
	}
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	return false, 0, max(1, int(math.Ceil((1-b.tokens)/l.rate)))
}

func (l *limiter) sweepLocked(now time.Time) {
	for k, b := range l.buckets {
		b.mu.Lock()
		idle := now.Sub(b.seen) > l.cfg.IdleTTL
		b.mu.Unlock()
		if idle {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}

// RateLimit is a token bucket per caller: the resolved owner when an
// identity is in the context, the client IP otherwise. Each call owns its
// buckets, so routes sharing a budget must share the returned middleware.
// A non-positive Burst disables limiting.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return rateLimit(cfg, time.Now)
}

func rateLimit(cfg RateLimitConfig, now func() time.Time) func(http.Handler) http.Handler {
	if cfg.Burst <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(cfg, now)
	limit := strconv.Itoa(cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(l.key(r))

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				respond.Error(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
