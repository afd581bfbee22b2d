package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/review-keyword-pipe-go/internal/aggregate"
	"github.com/shouni/review-keyword-pipe-go/internal/columns"
)

// フェーズ名
const (
	PhaseLoad      = "入力読み込みフェーズ"
	PhaseResolve   = "列解決フェーズ"
	PhaseAnnotate  = "キーワード抽出フェーズ"
	PhaseAggregate = "キーワード集計フェーズ"
	PhaseOutput    = "出力フェーズ"
)

// Execute はアプリケーションの主要な処理フローを、注入されたステージを通じて実行します。
// 読み込みと列解決のエラーは行の処理を始める前に返されます。
func (p *Pipeline) Execute(ctx context.Context) error {
	// 1. 入力読み込みステージ
	ds, err := p.Loader.Load(ctx, p.Options)
	if err != nil {
		return fmt.Errorf("%sでエラーが発生しました: %w", PhaseLoad, err)
	}

	// 2. 列解決ステージ
	resolver := p.Resolver
	if resolver == nil {
		resolver = columns.NewResolver(p.Options.ColumnOverrides())
	}
	if resolver.Exclude == nil {
		resolver.Exclude = p.Columns.Owns
	}
	res, err := resolver.Resolve(ds.Fields)
	if err != nil {
		return fmt.Errorf("%sでエラーが発生しました: %w", PhaseResolve, err)
	}
	slog.Info("列を解決しました。",
		slog.String("review", res.Review),
		slog.String("entity", res.Entity),
		slog.String("location", res.Location))

	// 3. キーワード抽出ステージ
	stats, err := p.Annotator.Run(ctx, ds, res.Review)
	if err != nil {
		return fmt.Errorf("%sでエラーが発生しました: %w", PhaseAnnotate, err)
	}

	// 4. 集計ステージ
	rows := aggregate.Summarize(ds, res, p.Columns, aggregate.DefaultOptions())
	slog.Info("キーワードを集計しました。", slog.Int("groups", len(rows)))

	// 5. 出力ステージ
	if err := p.OutputGen.Generate(ctx, p.Options, ds, aggregate.Table(rows)); err != nil {
		return fmt.Errorf("%sでエラーが発生しました: %w", PhaseOutput, err)
	}

	slog.Info("処理が正常に完了しました。",
		slog.Int("rows", stats.Visited),
		slog.Int("done", stats.Done),
		slog.Int("failed", stats.Failed),
		slog.Int("skipped", stats.Skipped))
	return nil
}
