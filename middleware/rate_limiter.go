package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitStore counts hits per key within a fixed window
type RateLimitStore interface {
	// Increment adds one hit to key and returns the count in the current window.
	// The window starts with the first hit.
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
}

// RedisStore keeps counters in Redis so limits hold across instances
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := s.client.TxPipeline()

	incr := pipe.Incr(ctx, key)
	// NX keeps the window anchored at the first hit
	pipe.ExpireNX(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incr.Val()), nil
}

// MemoryStore keeps counters in process memory
type MemoryStore struct {
	mu        sync.Mutex
	store     map[string]*rateLimitEntry
	now       func() time.Time
	lastSweep time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// memorySweepInterval bounds how often expired counters of other keys are dropped
const memorySweepInterval = time.Minute

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*rateLimitEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= memorySweepInterval {
		for k, entry := range s.store {
			if !now.Before(entry.expiresAt) {
				delete(s.store, k)
			}
		}
		s.lastSweep = now
	}

	entry, exists := s.store[key]
	if !exists || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		s.store[key] = entry
	}

	entry.count++
	return entry.count, nil
}

// RateLimiter applies per-IP limits through a store
type RateLimiter struct {
	store RateLimitStore
	log   *zap.Logger
}

// RateLimitConfig is one limit: at most Limit requests per Window for each client IP.
// Scope keeps counters of different limits apart.
type RateLimitConfig struct {
	Scope  string
	Limit  int
	Window time.Duration
}

func NewRateLimiter(store RateLimitStore, log *zap.Logger) *RateLimiter {
	return &RateLimiter{store: store, log: log}
}

// RateLimit rejects requests over the limit with 429. When the store fails the request
// is let through and the failure logged.
func (r *RateLimiter) RateLimit(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:ip:%s", config.Scope, c.ClientIP())

		count, err := r.store.Increment(c.Request.Context(), key, config.Window)
		if err != nil {
			r.log.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := config.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > config.Limit {
			c.Header("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, please try again later")
			return
		}

		c.Next()
	}
}
