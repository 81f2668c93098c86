package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/gatekeep/pkg/httputil"
	"github.com/platinummonkey/gatekeep/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns the limits for anonymous callers
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 100,
		WindowDuration:    time.Minute,
	}
}

// PerPrincipalRateLimitConfig returns the limits for authenticated principals
func PerPrincipalRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 1000,
		WindowDuration:    time.Minute,
	}
}

// RateLimiter is a fixed-window counter shared across instances through Redis
type RateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	prefix string
}

// NewRateLimiter creates a new Redis-backed rate limiter
func NewRateLimiter(redisClient *redis.Client, config *RateLimitConfig, prefix string) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

func (rl *RateLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", rl.prefix, key)
}

// Allow counts one request against key and reports whether it fits the window
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := rl.key(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	// A counter without expiry, new or left behind by a failed EXPIRE,
	// starts its window now
	if ttl.Val() < 0 {
		if err := rl.redis.Expire(ctx, redisKey, rl.config.WindowDuration).Err(); err != nil {
			return true, fmt.Errorf("redis error: %w", err)
		}
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Remaining returns the number of requests left in the current window
func (rl *RateLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := rl.redis.Get(ctx, rl.key(key)).Int()
	if err == redis.Nil {
		return rl.config.RequestsPerWindow, nil
	} else if err != nil {
		return 0, err
	}

	remaining := rl.config.RequestsPerWindow - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TTL returns the time until the window resets
func (rl *RateLimiter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return rl.redis.TTL(ctx, rl.key(key)).Result()
}

// Reset clears the counter for a key
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.key(key)).Err()
}

// RateLimitMiddleware limits requests by client IP before authentication
// and by principal ID after it
type RateLimitMiddleware struct {
	principalLimiter *RateLimiter
	anonymousLimiter *RateLimiter
	trusted          httputil.TrustedProxies
	failOpen         bool
}

// NewRateLimitMiddleware creates a rate limit middleware. Nil configs use
// the defaults.
func NewRateLimitMiddleware(redisClient *redis.Client, principal, anonymous *RateLimitConfig) *RateLimitMiddleware {
	if principal == nil {
		principal = PerPrincipalRateLimitConfig()
	}
	return &RateLimitMiddleware{
		principalLimiter: NewRateLimiter(redisClient, principal, "ratelimit:principal"),
		anonymousLimiter: NewRateLimiter(redisClient, anonymous, "ratelimit:ip"),
		failOpen:         true,
	}
}

// SetFailOpen controls whether Redis errors let requests through (true)
// or answer 503 (false)
func (m *RateLimitMiddleware) SetFailOpen(enabled bool) {
	m.failOpen = enabled
}

// SetTrustedProxies sets the peers whose forwarding headers name the client
func (m *RateLimitMiddleware) SetTrustedProxies(trusted httputil.TrustedProxies) {
	m.trusted = trusted
}

// IPHandler limits every request by client IP. It runs before
// AuthMiddleware so rejected credentials count against the caller too.
func (m *RateLimitMiddleware) IPHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.limit(w, r, next, m.anonymousLimiter, "ip:"+httputil.ClientIP(r, m.trusted))
	})
}

// Handler limits authenticated requests by principal ID. It must run after
// AuthMiddleware; requests without a principal pass through.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r)
		if p == nil {
			next.ServeHTTP(w, r)
			return
		}
		m.limit(w, r, next, m.principalLimiter, "principal:"+p.ID)
	})
}

func (m *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request, next http.Handler, limiter *RateLimiter, key string) {
	ctx := r.Context()

	allowed, err := limiter.Allow(ctx, key)
	if err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Rate limiter unavailable")
		if m.failOpen {
			next.ServeHTTP(w, r)
			return
		}
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}

	ttl, ttlErr := limiter.TTL(ctx, key)
	if ttlErr == nil && ttl > 0 {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.config.RequestsPerWindow))

	if !allowed {
		retryAfter := limiter.config.WindowDuration
		if ttlErr == nil && ttl > 0 {
			retryAfter = ttl
		}
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		w.Header().Set("X-RateLimit-Remaining", "0")
		httputil.WriteErrorMessage(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	if remaining, err := limiter.Remaining(ctx, key); err == nil {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}

	next.ServeHTTP(w, r)
}
