package middleware

import (
	"sync"
	"time"

	"go-ees/internal/shared/apperror"
	"go-ees/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// DefaultLimiterIdleTTL is how long a client's bucket survives without
// requests before it is dropped.
const DefaultLimiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client key. Buckets idle for longer
// than the TTL are swept on access, at most once per TTL, so the table stays
// bounded by the clients seen in the last two TTLs.
type IPRateLimiter struct {
	visitors  map[string]*visitor
	mu        sync.Mutex
	r         rate.Limit // tokens per second
	b         int        // burst
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type LimiterOption func(*IPRateLimiter)

func WithIdleTTL(ttl time.Duration) LimiterOption {
	return func(l *IPRateLimiter) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *IPRateLimiter) {
		l.now = now
	}
}

func NewIPRateLimiter(r rate.Limit, b int, opts ...LimiterOption) *IPRateLimiter {
	l := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		ttl:      DefaultLimiterIdleTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.ttl {
		for k, v := range i.visitors {
			if now.Sub(v.lastSeen) >= i.ttl {
				delete(i.visitors, k)
			}
		}
		i.lastSweep = now
	}

	v, exists := i.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.r, i.b)}
		i.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Len reports how many client buckets are currently tracked.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}

// RateLimitByIP rejects requests above r per second (burst b) from one client
// IP with 429. A non-positive r disables the limiter.
func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	if r <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			response.Abort(c,
				apperror.ErrTooManyRequests.HTTPStatus,
				apperror.ErrTooManyRequests.Code,
				apperror.ErrTooManyRequests.Message,
				nil,
			)
			return
		}
		c.Next()
	}
}
