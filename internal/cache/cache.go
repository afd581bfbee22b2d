package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache は成功したキーワード抽出結果を実行をまたいで保持するメモ化ストアです。
// ヒットやミスのメトリクスは各実装が記録します。
type Cache interface {
	// Get はキーに対応する値を返します。見つからない場合は ok=false です。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Key はモデル名とプロンプトからキャッシュキーを生成します。
func Key(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// Open は URI からキャッシュを開きます。URI が空なら nil を返します。
//
//	sqlite:///path/to/cache.db  または  sqlite://cache.db
//	redis://[:password@]host:port/db
func Open(uri string, ttl time.Duration) (Cache, error) {
	switch {
	case uri == "":
		return nil, nil
	case strings.HasPrefix(uri, "sqlite://"):
		c, err := NewSQLiteCache(strings.TrimPrefix(uri, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return c, nil
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		opts, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("Redis URIの解析に失敗しました: %w", err)
		}
		return NewRedisCache(redis.NewClient(opts), ttl), nil
	default:
		return nil, fmt.Errorf("未対応のキャッシュURIです: %s (sqlite:// または redis:// を指定してください)", uri)
	}
}
