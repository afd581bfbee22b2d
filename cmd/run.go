package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/review-keyword-pipe-go/internal/annotator"
	"github.com/shouni/review-keyword-pipe-go/internal/builder"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
	"github.com/shouni/review-keyword-pipe-go/internal/extractor"
	"github.com/shouni/review-keyword-pipe-go/internal/metrics"
	"github.com/shouni/review-keyword-pipe-go/internal/pipeline"
	"github.com/shouni/review-keyword-pipe-go/prompts"
)

// パイプライン全体の最大実行時間。個別のLLM呼び出しのタイムアウトとは別に、全体の上限を設ける。
const defaultContextTimeout = 6 * time.Hour

// runCmd は、メインのCLIコマンド定義です。
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "レビューCSVからAIでキーワードを抽出し、施設ごとに集計します。",
	Long: `
レビューCSV (またはExcel) の各行からAIでキーワードを抽出し、施設ごとに集計します。
実行には、-iまたは--inputオプションで入力ファイルを指定してください (ローカル、gs://、s3://)。

-oまたは--outputオプションで、キーワード列を追加したCSVの出力先を指定します。
処理中も定期的に書き込まれ、--resume を指定すると処理済みの行をスキップして再開します。
-sまたは--summary-outputオプションで集計表の出力先を指定します。指定しない場合は標準出力にプレビューを表示します。
`,
	RunE: runMainLogic,
}

// init関数でサブコマンド固有のフラグを定義します。
func init() {
	f := runCmd.Flags()
	f.StringP("input", "i", "", "入力CSV/Excelファイルのパス (gs://bucket/object, s3://bucket/key も可)")
	f.StringP("output", "o", "./output/reviews_with_keywords.csv", "キーワード列を追加したCSVの出力先 (空文字で出力しない)")
	f.StringP("summary-output", "s", "", "施設ごとのキーワード集計表の出力先 (省略時は標準出力にプレビュー)")
	f.StringSlice("encodings", dataset.DefaultEncodings, "順に試行する入力エンコーディング")
	f.String("s3-region", "", "S3のリージョン (省略時はAWSの既定設定)")
	f.String("s3-endpoint", "", "S3互換ストレージのエンドポイント (MinIOなど)")

	f.String("provider", extractor.ProviderGemini, "使用するLLMプロバイダー (gemini または openai)")
	f.StringP("api-key", "k", "", "APIキー (省略時は環境変数 GEMINI_API_KEY / OPENAI_API_KEY)")
	f.StringP("model", "m", "", "使用するAIモデル名 (省略時はプロバイダーごとの既定値)")
	f.Duration("rate-limit", extractor.DefaultLLMRateLimit, "LLM APIの呼び出し間隔 (0で無制限)")
	f.String("keyword-count", prompts.DefaultKeywordCount, "1件のレビューから抽出するキーワード数")

	f.String("review-column", "", "レビュー列の列名 (省略時は列名から自動判定)")
	f.String("entity-column", "", "施設名列の列名 (省略時は列名から自動判定)")
	f.String("location-column", "", "所在地列の列名 (省略時は列名から自動判定)")

	f.IntP("parallel", "p", 1, "LLM APIの最大同時呼び出し数")
	f.Int("progress-every", annotator.DefaultProgressEvery, "進捗を通知し途中経過を書き込む行数の間隔")
	f.Bool("retry-failed", true, "前回エラーになった行を再処理する")
	f.Bool("resume", false, "出力ファイルが存在する場合、その内容から処理を再開する")

	f.String("cache", "", "抽出結果のキャッシュ (sqlite://path または redis://host:port/db)")
	f.Duration("cache-ttl", 0, "Redisキャッシュの有効期限 (0で無期限)")
	f.String("metrics-addr", "", "Prometheusメトリクスを公開するアドレス (例: :9090)")

	runCmd.MarkFlagRequired("input")
}

// newCmdOptionsFromFlags は cobra.Command のフラグから CmdOptions 構造体を生成します。
func newCmdOptionsFromFlags(cmd *cobra.Command) (pipeline.CmdOptions, error) {
	f := cmd.Flags()
	var opts pipeline.CmdOptions
	var err error

	strFlags := []struct {
		name string
		dst  *string
	}{
		{"input", &opts.InputPath},
		{"output", &opts.OutputPath},
		{"summary-output", &opts.SummaryOutputPath},
		{"s3-region", &opts.S3Region},
		{"s3-endpoint", &opts.S3Endpoint},
		{"provider", &opts.Provider},
		{"api-key", &opts.LLMAPIKey},
		{"model", &opts.Model},
		{"keyword-count", &opts.KeywordCount},
		{"review-column", &opts.ReviewColumn},
		{"entity-column", &opts.EntityColumn},
		{"location-column", &opts.LocationColumn},
		{"cache", &opts.CacheURI},
		{"metrics-addr", &opts.MetricsAddr},
	}
	for _, sf := range strFlags {
		if *sf.dst, err = f.GetString(sf.name); err != nil {
			return pipeline.CmdOptions{}, fmt.Errorf("%sフラグの取得に失敗しました: %w", sf.name, err)
		}
	}

	if opts.Encodings, err = f.GetStringSlice("encodings"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("encodingsフラグの取得に失敗しました: %w", err)
	}
	if opts.RateLimit, err = f.GetDuration("rate-limit"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("rate-limitフラグの取得に失敗しました: %w", err)
	}
	if opts.CacheTTL, err = f.GetDuration("cache-ttl"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("cache-ttlフラグの取得に失敗しました: %w", err)
	}
	if opts.Parallel, err = f.GetInt("parallel"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("parallelフラグの取得に失敗しました: %w", err)
	}
	if opts.ProgressEvery, err = f.GetInt("progress-every"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("progress-everyフラグの取得に失敗しました: %w", err)
	}
	if opts.RetryFailed, err = f.GetBool("retry-failed"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("retry-failedフラグの取得に失敗しました: %w", err)
	}
	if opts.Resume, err = f.GetBool("resume"); err != nil {
		return pipeline.CmdOptions{}, fmt.Errorf("resumeフラグの取得に失敗しました: %w", err)
	}

	if err := validateOptions(opts); err != nil {
		return pipeline.CmdOptions{}, err
	}
	return opts, nil
}

func validateOptions(opts pipeline.CmdOptions) error {
	if opts.Parallel < 1 {
		return fmt.Errorf("--parallel には1以上の値を指定する必要があります")
	}
	if opts.ProgressEvery < 1 {
		return fmt.Errorf("--progress-every には1以上の値を指定する必要があります")
	}
	switch strings.ToLower(opts.Provider) {
	case extractor.ProviderGemini, extractor.ProviderOpenAI:
	default:
		return fmt.Errorf("--provider には gemini または openai を指定してください: %q", opts.Provider)
	}
	if opts.Resume && opts.OutputPath == "" {
		return fmt.Errorf("--resume には --output の指定が必要です")
	}
	return nil
}

// runMainLogicはCLIのメインロジックを実行します。
func runMainLogic(cmd *cobra.Command, args []string) error {
	// 1. フラグからオプション構造体を生成する
	opts, err := newCmdOptionsFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), defaultContextTimeout)
	defer cancel()

	// 2. パイプラインの構築 (APIキーの検証を含む)
	p, closer, err := builder.BuildPipeline(ctx, opts)
	if closer != nil {
		defer closer()
	}
	if err != nil {
		return fmt.Errorf("パイプラインの構築に失敗しました: %w", err)
	}

	// 3. メトリクスの公開 (指定時のみ)
	metrics.Serve(ctx, opts.MetricsAddr, metrics.InitRegistry())

	// 4. パイプラインの実行
	if err := p.Execute(ctx); err != nil {
		return fmt.Errorf("パイプラインの実行中にエラーが発生しました: %w", err)
	}
	return nil
}
