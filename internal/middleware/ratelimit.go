package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"golang.org/x/time/rate"
)

// RateLimitConfig sets the per-client token bucket
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// IdleTTL is how long an unused client bucket is kept
	IdleTTL time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		IdleTTL:           10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands out one token bucket per client address
type ClientLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	cfg       RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func NewClientLimiter(cfg RateLimitConfig) *ClientLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &ClientLimiter{
		limiters: make(map[string]*clientLimiter),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Allow reports whether the client may make a request now
func (c *ClientLimiter) Allow(client string) bool {
	return c.limiter(client).Allow()
}

func (c *ClientLimiter) limiter(client string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) > c.cfg.IdleTTL {
		for key, l := range c.limiters {
			if now.Sub(l.lastSeen) > c.cfg.IdleTTL {
				delete(c.limiters, key)
			}
		}
		c.lastSweep = now
	}

	l, ok := c.limiters[client]
	if !ok {
		l = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(c.cfg.RequestsPerSecond), c.cfg.BurstSize)}
		c.limiters[client] = l
	}
	l.lastSeen = now
	return l.limiter
}

// Len returns the number of tracked clients
func (c *ClientLimiter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.limiters)
}

// RateLimit rejects clients that exceed their bucket with 429
func RateLimit(limiter *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.ErrorResponse{
					Error: "too many requests",
					Code:  "RATE_LIMITED",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
