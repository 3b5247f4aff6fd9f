package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"bizflow/internal/api"
	"bizflow/internal/biz/code"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now.
func (r *RateLimiter) Allow(key string) bool {
	now := r.now()
	r.mu.Lock()
	c, ok := r.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = c
	}
	c.seen = now
	lim := c.lim
	r.mu.Unlock()
	return lim.AllowN(now, 1)
}

// Prune forgets clients idle for longer than idle and returns how many were
// removed.
func (r *RateLimiter) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.clients {
		if c.seen.Before(cutoff) {
			delete(r.clients, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked clients.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Middleware rejects over-limit clients, keyed by client IP, with HTTP 429
// and a FAIL envelope. onLimited may be nil.
func (r *RateLimiter) Middleware(onLimited func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		if onLimited != nil {
			onLimited()
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, api.Error[any](code.Fail, "too many requests"))
	}
}
