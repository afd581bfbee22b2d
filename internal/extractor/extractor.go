package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/review-keyword-pipe-go/internal/cache"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
	"github.com/shouni/review-keyword-pipe-go/prompts"
)

// Options はプロンプトに埋め込む抽出条件です。
type Options struct {
	KeywordCount  string
	Language      string
	ExcludedWords []string
}

// Extractor はレビュー本文1件からキーワード列の値を生成します。
// リモート呼び出しの失敗は呼び出し元へ伝播せず、Failed のアノテーションとして返します。
type Extractor struct {
	builder    *prompts.PromptBuilder
	summarizer Summarizer
	cache      cache.Cache // nil 可
	opts       Options
}

// NewExtractor は新しい Extractor インスタンスを作成します。
func NewExtractor(builder *prompts.PromptBuilder, summarizer Summarizer, c cache.Cache, opts Options) (*Extractor, error) {
	if summarizer == nil {
		return nil, fmt.Errorf("Summarizer は nil にできません")
	}
	if builder == nil {
		builder = prompts.NewKeywordPromptBuilder()
	}
	if err := builder.Err(); err != nil {
		return nil, fmt.Errorf("プロンプトテンプレートの初期化に失敗しました: %w", err)
	}
	return &Extractor{builder: builder, summarizer: summarizer, cache: c, opts: opts}, nil
}

// Extract はレビュー本文からキーワードを抽出します。
// 空白のみの本文はリモート呼び出しを行わず NotApplicable を返します。
func (e *Extractor) Extract(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Annotation: dataset.Annotation{Status: dataset.StatusNotApplicable}}
	}

	prompt, err := e.builder.BuildKeyword(prompts.KeywordTemplateData{
		ReviewText:    text,
		KeywordCount:  e.opts.KeywordCount,
		Language:      e.opts.Language,
		ExcludedWords: strings.Join(e.opts.ExcludedWords, ", "),
	})
	if err != nil {
		return failed(err)
	}

	key := cache.Key(e.summarizer.Model(), prompt)
	if value, ok := e.lookup(ctx, key); ok {
		return Result{Annotation: dataset.Annotation{Value: value, Status: dataset.StatusDone}, Cached: true}
	}

	response, err := e.summarizer.Summarize(ctx, prompt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		// 実行の中断はプロバイダーの失敗ではないため、行は Pending のまま残します。
		return Result{Annotation: dataset.Annotation{Status: dataset.StatusPending}, Err: ctxErr, Interrupted: true}
	}
	if err != nil {
		return failed(err)
	}

	value := strings.TrimSpace(response)
	e.store(ctx, key, value)
	return Result{Annotation: dataset.Annotation{Value: value, Status: dataset.StatusDone}}
}

func (e *Extractor) lookup(ctx context.Context, key string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	value, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("キャッシュの参照に失敗しました。", slog.String("error", err.Error()))
		return "", false
	}
	return value, ok
}

func (e *Extractor) store(ctx context.Context, key, value string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, value); err != nil {
		slog.Warn("キャッシュへの保存に失敗しました。", slog.String("error", err.Error()))
	}
}

// failed はエラー理由をセル値に含めた Failed の結果を作ります。
func failed(err error) Result {
	reason := err.Error()
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Err != nil {
		reason = perr.Err.Error()
	}
	return Result{
		Annotation: dataset.Annotation{Value: dataset.ErrorPrefix + reason, Status: dataset.StatusFailed},
		Err:        err,
	}
}
