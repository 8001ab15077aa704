package version

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisLedger uses INCR, which is atomic across all service instances.
type RedisLedger struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisLedger(rdb redis.Cmdable) *RedisLedger {
	return &RedisLedger{rdb: rdb, prefix: "hr-optimizer:version:"}
}

func (l *RedisLedger) Next(ctx context.Context, key string) (int64, error) {
	return l.rdb.Incr(ctx, l.prefix+key).Result()
}
