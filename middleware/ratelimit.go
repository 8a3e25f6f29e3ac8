package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"energy-server/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-key token bucket kept in process memory.
type MemoryLimiter struct {
	mu       sync.RWMutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
}

func NewMemoryLimiter(requestsPerSecond float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()

	return v.limiter.Allow(), nil
}

// Cleanup drops visitors idle for longer than maxIdle.
func (l *MemoryLimiter) Cleanup(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if time.Since(v.lastSeen) > maxIdle {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *MemoryLimiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.visitors)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *MemoryLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup(interval)
			}
		}
	}()
}

// RedisLimiter is a fixed-window counter shared by every server instance.
// Each key may make limit requests per window.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		prefix: "energy:ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= l.limit, nil
}

// RateLimit rejects callers over their budget with 429. Limiter errors let
// the request through.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.FromGin(c).Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			logger.FromGin(c).Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}
