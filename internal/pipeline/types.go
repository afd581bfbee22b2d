package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/shouni/review-keyword-pipe-go/internal/annotator"
	"github.com/shouni/review-keyword-pipe-go/internal/columns"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

// ----------------------------------------------------------------
// 共通構造体
// ----------------------------------------------------------------

// CmdOptions は CLI オプションの値を集約するための構造体です。
type CmdOptions struct {
	// LLM
	Provider     string
	LLMAPIKey    string
	Model        string
	RateLimit    time.Duration
	KeywordCount string

	// 入出力 (ローカルパス、gs://bucket/object、s3://bucket/key)
	InputPath         string
	OutputPath        string
	SummaryOutputPath string
	Encodings         []string
	S3Region          string
	S3Endpoint        string

	// 列の明示指定
	ReviewColumn   string
	EntityColumn   string
	LocationColumn string

	// 行処理
	Parallel      int
	ProgressEvery int
	RetryFailed   bool
	Resume        bool

	// メモ化キャッシュ (sqlite:// または redis://)
	CacheURI string
	CacheTTL time.Duration

	MetricsAddr string
}

// ColumnOverrides は列の明示指定を columns.Overrides に変換します。
func (o CmdOptions) ColumnOverrides() columns.Overrides {
	return columns.Overrides{
		Review:   o.ReviewColumn,
		Entity:   o.EntityColumn,
		Location: o.LocationColumn,
	}
}

// ----------------------------------------------------------------
// パイプラインステージのインターフェース (DIの契約)
// ----------------------------------------------------------------

// InputReader はローカルまたはリモートの入力を開くための契約です。
type InputReader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Exists は入力が存在するかどうかを返します。
	Exists(ctx context.Context, path string) (bool, error)
}

// OutputWriter はローカルまたはリモートへ内容を書き込むための契約です。
type OutputWriter interface {
	Write(ctx context.Context, path string, content []byte, contentType string) error
}

// DatasetLoader は入力からデータセットを読み込むステージの契約です。
type DatasetLoader interface {
	Load(ctx context.Context, opts CmdOptions) (*dataset.Dataset, error)
}

// RowAnnotator は各行にキーワードを付与するステージの契約です。
type RowAnnotator interface {
	Run(ctx context.Context, ds *dataset.Dataset, reviewField string) (annotator.Stats, error)
}

// OutputGenerator はアノテーション済みデータセットと集計表を出力するステージの契約です。
type OutputGenerator interface {
	Generate(ctx context.Context, opts CmdOptions, annotated, summary *dataset.Dataset) error
}

// ----------------------------------------------------------------
// Pipeline コア構造
// ----------------------------------------------------------------

// Pipeline はアプリケーションの実行パイプラインを定義し、DIされた依存関係を保持します。
type Pipeline struct {
	// Options はパイプライン実行全体で必要な設定値を保持します。
	Options CmdOptions
	// DIされるステージ実装
	Loader    DatasetLoader
	Resolver  *columns.Resolver
	Annotator RowAnnotator
	OutputGen OutputGenerator
	Columns   dataset.AnnotationColumns
}

// NewPipeline は CmdOptions とステージの具象実装を受け取り、Pipelineインスタンスを構築します。
func NewPipeline(
	opts CmdOptions,
	loader DatasetLoader,
	resolver *columns.Resolver,
	rowAnnotator RowAnnotator,
	outputGen OutputGenerator,
) *Pipeline {
	return &Pipeline{
		Options:   opts,
		Loader:    loader,
		Resolver:  resolver,
		Annotator: rowAnnotator,
		OutputGen: outputGen,
		Columns:   dataset.DefaultAnnotationColumns(),
	}
}
