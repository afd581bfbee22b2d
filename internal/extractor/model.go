package extractor

import (
	"time"

	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

// DefaultGeminiModel は Gemini で使用する既定モデルです。速度とコストを優先します。
const DefaultGeminiModel = "gemini-2.5-flash"

// DefaultOpenAIModel は OpenAI で使用する既定モデルです。
const DefaultOpenAIModel = "gpt-3.5-turbo"

// DefaultLLMRateLimit は、1000msごとに1リクエストを許可するレートリミットです。
const DefaultLLMRateLimit = 1000 * time.Millisecond

// プロバイダー名
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Result は1件のレビューに対する抽出結果です。
type Result struct {
	Annotation dataset.Annotation
	// Err はプロバイダー呼び出しの失敗理由です。Annotation.Status が Failed の場合のみ設定されます。
	Err error
	// Cached はキャッシュから取得した結果かどうかを表します。
	Cached bool
	// Interrupted は呼び出し中に ctx が終了したことを表します。この結果は書き込んではいけません。
	Interrupted bool
}
