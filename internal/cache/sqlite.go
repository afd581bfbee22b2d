package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shouni/review-keyword-pipe-go/internal/metrics"

	_ "modernc.org/sqlite"
)

// SQLiteCache はローカルファイルに結果を保存するキャッシュです。
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache はデータベースファイルを開き、テーブルを作成します。
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLiteキャッシュのパスが空です")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("ディレクトリの作成に失敗しました (%s): %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("SQLiteのオープンに失敗しました: %w", err)
	}
	// 書き込みの競合を避けるため接続は1本に制限する
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS keyword_cache (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("SQLiteキャッシュテーブルの作成に失敗しました: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM keyword_cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.ObserveCache("sqlite", "miss")
		return "", false, nil
	}
	if err != nil {
		metrics.ObserveCache("sqlite", "error")
		return "", false, fmt.Errorf("SQLiteキャッシュの読み込みに失敗しました: %w", err)
	}
	metrics.ObserveCache("sqlite", "hit")
	return value, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO keyword_cache (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		metrics.ObserveCache("sqlite", "error")
		return fmt.Errorf("SQLiteキャッシュへの書き込みに失敗しました: %w", err)
	}
	metrics.ObserveCache("sqlite", "set")
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
