package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/shouni/go-ai-client/v2/pkg/ai/gemini"
	"golang.org/x/time/rate"

	"github.com/shouni/review-keyword-pipe-go/internal/metrics"
)

// Summarizer は、リモートLLMによるテキスト生成を抽象化するインターフェースです。
// 1回の実行につき一度だけ構築し、全行で共有します。
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
	// Model はキャッシュキーに使うモデル識別子を返します。
	Model() string
}

// ProviderError は1件のリモート呼び出しの失敗を表します (レート制限、認証、通信、不正な応答など)。
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API呼び出しに失敗しました: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewRateLimiter は interval ごとに1リクエストを許可するリミッターを返します。interval が0以下なら制限しません。
func NewRateLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// ----------------------------------------------------------------
// Gemini
// ----------------------------------------------------------------

// GeminiSummarizer は go-ai-client の Gemini クライアントを使った Summarizer です。
type GeminiSummarizer struct {
	client  *gemini.Client
	model   string
	limiter *rate.Limiter
}

// NewGeminiSummarizer は新しい GeminiSummarizer インスタンスを作成します。
// apiKeyOverride が空の場合は環境変数 GEMINI_API_KEY を使用します。
func NewGeminiSummarizer(ctx context.Context, apiKeyOverride, model string, limiter *rate.Limiter) (*GeminiSummarizer, error) {
	var client *gemini.Client
	var err error

	if apiKeyOverride != "" {
		client, err = gemini.NewClient(ctx, gemini.Config{APIKey: apiKeyOverride})
	} else {
		client, err = gemini.NewClientFromEnv(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("LLMクライアントの初期化に失敗しました。APIキーを確認してください: %w", err)
	}

	if model == "" {
		model = DefaultGeminiModel
	}
	if limiter == nil {
		limiter = NewRateLimiter(DefaultLLMRateLimit)
	}
	return &GeminiSummarizer{client: client, model: model, limiter: limiter}, nil
}

func (s *GeminiSummarizer) Model() string {
	return ProviderGemini + "/" + s.model
}

func (s *GeminiSummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}

	start := time.Now()
	response, err := s.client.GenerateContent(ctx, prompt, s.model)
	metrics.ObserveProvider(ProviderGemini, err, time.Since(start))
	if err != nil {
		return "", &ProviderError{Provider: ProviderGemini, Err: err}
	}
	return response.Text, nil
}

// ----------------------------------------------------------------
// OpenAI
// ----------------------------------------------------------------

// OpenAISummarizer は Chat Completions API を使った Summarizer です。
type OpenAISummarizer struct {
	client  openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAISummarizer は新しい OpenAISummarizer インスタンスを作成します。
func NewOpenAISummarizer(apiKey, model string, limiter *rate.Limiter, opts ...option.RequestOption) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI APIキーが設定されていません")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if limiter == nil {
		limiter = NewRateLimiter(DefaultLLMRateLimit)
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAISummarizer{
		client:  openai.NewClient(opts...),
		model:   model,
		limiter: limiter,
	}, nil
}

func (s *OpenAISummarizer) Model() string {
	return ProviderOpenAI + "/" + s.model
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: err}
	}

	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(s.model),
	})
	if err == nil && len(resp.Choices) == 0 {
		err = fmt.Errorf("応答に choices が含まれていません")
	}
	metrics.ObserveProvider(ProviderOpenAI, err, time.Since(start))
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAI, Err: err}
	}
	return resp.Choices[0].Message.Content, nil
}

// 型アサーションチェック
var (
	_ Summarizer = (*GeminiSummarizer)(nil)
	_ Summarizer = (*OpenAISummarizer)(nil)
)
