package lead

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "leadrate:"

// RedisLimiter is a sliding-window counter backed by a Redis sorted set,
// giving a shared window across all running instances. Semantics match
// MemoryLimiter: the attempt is always recorded, rejection triggers when the
// post-record count exceeds the limit.
type RedisLimiter struct {
	client redis.Cmdable
	window time.Duration
	max    int
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client redis.Cmdable, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		window: window,
		max:    max,
		now:    time.Now,
	}
}

// Allow trims entries older than the window, adds the current attempt and
// counts what remains, all in one transactional pipeline.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	redisKey := redisKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMilli(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", cutoff)
	// Member must be unique per attempt or same-instant attempts collapse
	// into one sorted-set entry.
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check for %q: %w", key, err)
	}
	return card.Val() <= int64(l.max), nil
}

var _ RateLimiter = (*RedisLimiter)(nil)
