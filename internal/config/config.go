package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// プロバイダーごとの認証情報の環境変数名
var apiKeyEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// ConfigurationError は実行に必要な設定 (APIキーなど) が不足していることを表します。
// 入力ファイルを開く前に返されます。
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("設定エラー (%s): %s", e.Setting, e.Reason)
}

// LoadEnv は .env ファイルがあれば環境変数に読み込みます。既存の環境変数は上書きしません。
// ファイルが存在しない場合はシステムの環境変数のみを使用します。
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Debug(".env ファイルが見つからないため、システムの環境変数を使用します。", slog.String("file", f))
				continue
			}
			return fmt.Errorf("%s の確認に失敗しました: %w", f, err)
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf(".env ファイルの読み込みに失敗しました: %w", err)
	}
	return nil
}

// EnvName はプロバイダーのAPIキーを保持する環境変数名を返します。
func EnvName(provider string) (string, error) {
	name, ok := apiKeyEnv[strings.ToLower(provider)]
	if !ok {
		return "", &ConfigurationError{Setting: "provider", Reason: fmt.Sprintf("未対応のプロバイダーです: %q (gemini または openai)", provider)}
	}
	return name, nil
}

// ResolveAPIKey はフラグ指定の値を優先し、空の場合は環境変数からAPIキーを解決します。
// どちらにも無ければ *ConfigurationError を返します。
func ResolveAPIKey(provider, override string) (string, error) {
	env, err := EnvName(provider)
	if err != nil {
		return "", err
	}
	if key := strings.TrimSpace(override); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(env)); key != "" {
		return key, nil
	}
	return "", &ConfigurationError{
		Setting: env,
		Reason:  fmt.Sprintf("APIキーが設定されていません。--api-key フラグまたは環境変数 %s を指定してください", env),
	}
}
