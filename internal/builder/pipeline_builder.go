package builder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shouni/review-keyword-pipe-go/internal/annotator"
	"github.com/shouni/review-keyword-pipe-go/internal/cache"
	"github.com/shouni/review-keyword-pipe-go/internal/columns"
	"github.com/shouni/review-keyword-pipe-go/internal/config"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
	"github.com/shouni/review-keyword-pipe-go/internal/extractor"
	"github.com/shouni/review-keyword-pipe-go/internal/pipeline"
	"github.com/shouni/review-keyword-pipe-go/prompts"
)

// BuildPipeline は、必要なすべての依存関係を構築し、DIされた Pipeline インスタンスと
// クライアント類のクリーンアップ関数 (Close) を返します。
// APIキーが無い場合は入力を開く前に *config.ConfigurationError を返します。
func BuildPipeline(ctx context.Context, opts pipeline.CmdOptions) (*pipeline.Pipeline, func(), error) {
	closers := &closerStack{}

	// ----------------------------------------------------------------
	// 1. 認証情報の解決 (入力を開く前に検証)
	// ----------------------------------------------------------------

	apiKey, err := config.ResolveAPIKey(opts.Provider, opts.LLMAPIKey)
	if err != nil {
		return nil, closers.Close, err
	}

	// ----------------------------------------------------------------
	// 2. ストレージクライアントの初期化 (必要な場合のみ)
	// ----------------------------------------------------------------

	paths := []string{opts.InputPath, opts.OutputPath, opts.SummaryOutputPath}

	var gcsClient *storage.Client
	if anyPath(paths, pipeline.IsGCSPath) {
		gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, closers.Close, fmt.Errorf("GCSクライアントの初期化に失敗しました: %w", err)
		}
		closers.push(func() { gcsClient.Close() })
	}

	var s3Client *s3.Client
	if anyPath(paths, pipeline.IsS3Path) {
		s3Client, err = newS3Client(ctx, opts.S3Region, opts.S3Endpoint)
		if err != nil {
			return nil, closers.Close, err
		}
	}

	// nil の *s3.Client をインターフェースに入れないようにする
	var s3API pipeline.S3API
	if s3Client != nil {
		s3API = s3Client
	}
	input := pipeline.NewStorageInputReader(gcsClient, s3API)
	writer := pipeline.NewStorageOutputWriter(gcsClient, s3API)

	// ----------------------------------------------------------------
	// 3. キーワード抽出 (Summarizer, キャッシュ, Extractor) の構築
	// ----------------------------------------------------------------

	limiter := extractor.NewRateLimiter(opts.RateLimit)

	var summarizer extractor.Summarizer
	switch strings.ToLower(opts.Provider) {
	case extractor.ProviderOpenAI:
		summarizer, err = extractor.NewOpenAISummarizer(apiKey, opts.Model, limiter)
	default:
		summarizer, err = extractor.NewGeminiSummarizer(ctx, apiKey, opts.Model, limiter)
	}
	if err != nil {
		return nil, closers.Close, fmt.Errorf("Summarizerの初期化に失敗しました: %w", err)
	}

	memo, err := cache.Open(opts.CacheURI, opts.CacheTTL)
	if err != nil {
		return nil, closers.Close, fmt.Errorf("キャッシュの初期化に失敗しました: %w", err)
	}
	if memo != nil {
		closers.push(func() {
			if err := memo.Close(); err != nil {
				slog.Warn("キャッシュのクローズに失敗しました。", slog.String("error", err.Error()))
			}
		})
	}

	keywordBuilder := prompts.NewKeywordPromptBuilder()
	if err := keywordBuilder.Err(); err != nil {
		return nil, closers.Close, fmt.Errorf("Keyword Prompt Builderの初期化に失敗しました: %w", err)
	}

	ex, err := extractor.NewExtractor(keywordBuilder, summarizer, memo, extractor.Options{
		KeywordCount:  opts.KeywordCount,
		ExcludedWords: prompts.DefaultExcludedWords,
	})
	if err != nil {
		return nil, closers.Close, fmt.Errorf("Extractorの初期化に失敗しました: %w", err)
	}

	// ----------------------------------------------------------------
	// 4. パイプラインステージの実装とPipelineの構築 (DIの実行)
	// ----------------------------------------------------------------

	cols := dataset.DefaultAnnotationColumns()

	ann := annotator.New(ex, cols)
	ann.Parallel = opts.Parallel
	ann.ProgressEvery = opts.ProgressEvery
	ann.Reporter = pipeline.NewCheckpointReporter(writer, opts.OutputPath)
	if !opts.RetryFailed {
		ann.RetryPolicy = annotator.SkipFailed
	}

	loader := pipeline.NewFileDatasetLoader(input, dataset.NewReader(dataset.WithEncodings(opts.Encodings...)))

	resolver := columns.NewResolver(opts.ColumnOverrides())
	resolver.Exclude = cols.Owns

	p := pipeline.NewPipeline(opts, loader, resolver, ann, pipeline.NewCSVOutputGenerator(writer))
	p.Columns = cols

	slog.Debug("パイプラインを構築しました。",
		slog.String("provider", opts.Provider),
		slog.String("model", summarizer.Model()),
		slog.Bool("cache", memo != nil))

	return p, closers.Close, nil
}

func newS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("AWS設定の読み込みに失敗しました: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if endpoint != "" {
		// MinIO などの S3 互換ストレージ向け
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

func anyPath(paths []string, match func(string) bool) bool {
	for _, p := range paths {
		if match(p) {
			return true
		}
	}
	return false
}

// closerStack は登録と逆順にリソースを解放します。
type closerStack struct {
	fns []func()
}

func (c *closerStack) push(fn func()) {
	c.fns = append(c.fns, fn)
}

func (c *closerStack) Close() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}
