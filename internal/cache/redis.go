package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shouni/review-keyword-pipe-go/internal/metrics"
)

const redisKeyPrefix = "review-keyword:"

// RedisCache は Redis に結果を保存するキャッシュです。複数の実行環境で共有できます。
type RedisCache struct {
	c   *redis.Client
	ttl time.Duration
}

// NewRedisCache は RedisCache を作成します。ttl が0なら期限なしで保存します。
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{c: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.c.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache("redis", "miss")
		return "", false, nil
	}
	if err != nil {
		metrics.ObserveCache("redis", "error")
		return "", false, fmt.Errorf("Redisキャッシュの読み込みに失敗しました: %w", err)
	}
	metrics.ObserveCache("redis", "hit")
	return v, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := r.c.Set(ctx, redisKeyPrefix+key, value, r.ttl).Err(); err != nil {
		metrics.ObserveCache("redis", "error")
		return fmt.Errorf("Redisキャッシュへの書き込みに失敗しました: %w", err)
	}
	metrics.ObserveCache("redis", "set")
	return nil
}

func (r *RedisCache) Close() error {
	return r.c.Close()
}
