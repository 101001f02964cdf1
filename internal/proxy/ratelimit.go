package proxy

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wesline/internal/config"
)

// RateLimiter keeps one token bucket per client IP. Buckets idle longer than
// the idle window are dropped on the next sweep.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter from the [rate_limit] config section. It
// returns nil when rate limiting is disabled.
func NewRateLimiter(cfg config.RateLimit) *RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	return newRateLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst, time.Duration(cfg.IdleSeconds)*time.Second, time.Now)
}

func newRateLimiter(limit rate.Limit, burst int, idle time.Duration, now func() time.Time) *RateLimiter {
	if idle <= 0 {
		idle = 5 * time.Minute
	}
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     now,
		clients: make(map[string]*clientBucket),
	}
}

// Allow spends one token for key. When the bucket is empty it returns false
// and how long the caller should wait.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idle/2 {
		l.sweepLocked(now)
	}
	bucket, ok := l.clients[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = bucket
	}
	bucket.lastSeen = now

	reservation := bucket.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Clients returns how many buckets are tracked.
func (l *RateLimiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	for key, bucket := range l.clients {
		if now.Sub(bucket.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// Wrap rejects over-limit requests with 429 and a Retry-After header.
// OPTIONS preflights are not counted.
func (l *RateLimiter) Wrap(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		ok, wait := l.Allow(clientKey(r))
		if !ok {
			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
