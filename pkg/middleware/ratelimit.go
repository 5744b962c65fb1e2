package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/dispatch/pkg/pipeline"
)

// RateLimitConfig configures the rate limit guard.
type RateLimitConfig struct {
	// Requests is the number of requests allowed per Per.
	Requests int

	// Per is the refill window (e.g., time.Minute).
	Per time.Duration

	// Burst is the bucket size. Default: Requests.
	Burst int

	// ExpiresIn is how long an idle client's limiter is kept.
	ExpiresIn time.Duration

	// Key identifies the client. Default: the remote IP.
	Key func(c *pipeline.Ctx) string
}

// DefaultRateLimitConfig allows 60 requests per minute per remote IP.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:  60,
		Per:       time.Minute,
		ExpiresIn: time.Hour,
		Key:       RemoteIP,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket guard.
type RateLimiter struct {
	cfg   RateLimitConfig
	limit rate.Limit
	now   func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a limiter. Zero fields of cfg take their defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Per <= 0 {
		cfg.Per = def.Per
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Requests
	}
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = def.ExpiresIn
	}
	if cfg.Key == nil {
		cfg.Key = def.Key
	}
	return &RateLimiter{
		cfg:      cfg,
		limit:    rate.Every(cfg.Per / time.Duration(cfg.Requests)),
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	return l.visitor(key).Allow()
}

func (l *RateLimiter) visitor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Cleanup drops limiters idle for longer than ExpiresIn and returns how
// many were removed.
func (l *RateLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.cfg.ExpiresIn {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Hook returns a request-start hook that answers 429 once a client is over
// its limit.
func (l *RateLimiter) Hook() pipeline.RequestHook {
	retryAfter := strconv.Itoa(int((l.cfg.Per / time.Duration(l.cfg.Requests)).Seconds() + 0.999))
	return func(c *pipeline.Ctx) (*pipeline.Response, error) {
		if l.Allow(l.cfg.Key(c)) {
			return nil, nil
		}
		res, err := c.Error(http.StatusTooManyRequests, "rate limit reached")
		if err != nil {
			return nil, err
		}
		res.SetHeader("Retry-After", retryAfter)
		return res, nil
	}
}

// Middleware returns the guard as a middleware entry.
func (l *RateLimiter) Middleware() pipeline.Middleware {
	hook := l.Hook()
	return pipeline.Named("ratelimit", func(c *pipeline.Ctx, next pipeline.Next) (*pipeline.Response, error) {
		if res, err := hook(c); err != nil || res != nil {
			return res, err
		}
		return next()
	})
}

// RemoteIP returns the host part of the request's RemoteAddr.
func RemoteIP(c *pipeline.Ctx) string {
	addr := c.Request().RemoteAddr
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
