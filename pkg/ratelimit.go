package pkg

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Errors
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// DistributedLimiter combines local rate.Limiter with Redis for global enforcement.
// A nil redis client degrades it to the local limiter only.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  *redis.Client
	prefix       string        // e.g: "ledger:tx_rate"
	ttl          time.Duration // counter window
	logger       *zap.Logger
}

// NewDistributedLimiter creates a limiter; if globalRate=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, prefix string, globalRate, burst int, ttl time.Duration, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if globalRate > 0 {
		local = rate.NewLimiter(rate.Limit(globalRate), burst)
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  redisClient,
		prefix:       prefix,
		ttl:          ttl,
		logger:       logger,
	}
}

// Allow checks if a token is available for key; uses Redis for the cross-process window count.
func (d *DistributedLimiter) Allow(ctx context.Context, key string) bool {
	if d.localLimiter == nil {
		return true // Unlimited
	}

	// Local check first (fast path)
	if !d.localLimiter.Allow() {
		return false
	}
	if d.redisClient == nil {
		return true
	}

	redisKey := d.prefix + ":" + key
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, d.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Error("redis_rate_limit_error_falling_back_to_local", zap.Error(err))
		return true
	}

	count := incr.Val()
	if count > int64(d.localLimiter.Burst()) {
		d.logger.Warn("global_rate_limit_exceeded", zap.String("key", key), zap.Int64("count", count))
		return false
	}
	return true
}
