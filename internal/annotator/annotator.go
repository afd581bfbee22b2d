package annotator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
	"github.com/shouni/review-keyword-pipe-go/internal/extractor"
	"github.com/shouni/review-keyword-pipe-go/internal/metrics"
)

// DefaultProgressEvery は進捗を通知する確定行数の間隔です。
const DefaultProgressEvery = 5

// RetryPolicy は前回の実行で Failed になった行の扱いです。
type RetryPolicy int

const (
	// SkipFailed は Failed の行を確定済みとして扱い、再実行しません。
	SkipFailed RetryPolicy = iota
	// RetryFailed は Failed の行を未処理とみなして再実行します。
	RetryFailed
)

// KeywordExtractor は1件のレビュー本文からアノテーションを生成します。
type KeywordExtractor interface {
	Extract(ctx context.Context, text string) extractor.Result
}

// Progress は進捗通知の内容です。
type Progress struct {
	// Dataset は処理中のデータセットそのものです。通知を受けた側は変更してはいけません。
	Dataset *dataset.Dataset
	// Committed はこの実行で確定した行数、Eligible は処理対象の行数です。
	Committed int
	Eligible  int
	// Final は最後の通知かどうかを表します。
	Final bool
}

// ProgressReporter は部分的にアノテーションされたデータセットを観測します。
// 通知は確定済みの変更のみを反映し、他の行の書き込みと並行して呼ばれることはありません。
type ProgressReporter interface {
	Report(ctx context.Context, p Progress) error
}

// Stats は1回の実行の集計です。
type Stats struct {
	Visited       int
	Skipped       int
	Done          int
	Failed        int
	NotApplicable int
	CacheHits     int
}

// Annotator はデータセットの各行にキーワードのアノテーションを付与します。
type Annotator struct {
	Extractor     KeywordExtractor
	Columns       dataset.AnnotationColumns
	RetryPolicy   RetryPolicy
	Reporter      ProgressReporter // nil 可
	ProgressEvery int
	Parallel      int
}

// New は既定値を持つ Annotator を作成します。
func New(ex KeywordExtractor, cols dataset.AnnotationColumns) *Annotator {
	return &Annotator{
		Extractor:     ex,
		Columns:       cols,
		RetryPolicy:   RetryFailed,
		ProgressEvery: DefaultProgressEvery,
		Parallel:      1,
	}
}

// Run はレビュー列 reviewField の値を順に抽出し、アノテーション列に書き込みます。
// 確定済みの行はスキップされるため、中断後の再実行で同じ行に対する呼び出しは発生しません。
func (a *Annotator) Run(ctx context.Context, ds *dataset.Dataset, reviewField string) (Stats, error) {
	if a.Extractor == nil {
		return Stats{}, fmt.Errorf("KeywordExtractor が設定されていません")
	}
	a.Columns.Ensure(ds)

	var stats Stats
	stats.Visited = ds.Len()
	pending := make([]int, 0, ds.Len())
	for i, r := range ds.Records {
		if a.skip(a.Columns.Get(r)) {
			stats.Skipped++
			continue
		}
		pending = append(pending, i)
	}

	slog.Info("キーワード抽出を開始します。",
		slog.Int("total_rows", ds.Len()),
		slog.Int("eligible_rows", len(pending)),
		slog.Int("skipped_rows", stats.Skipped),
		slog.Int("max_parallel", a.parallel()))

	c := &committer{
		a:        a,
		ds:       ds,
		stats:    &stats,
		eligible: len(pending),
	}

	var err error
	if a.parallel() == 1 {
		err = a.runSequential(ctx, ds, reviewField, pending, c)
	} else {
		err = a.runPool(ctx, ds, reviewField, pending, c)
	}
	if err != nil {
		return stats, err
	}

	if err := c.report(ctx, true); err != nil {
		return stats, err
	}

	slog.Info("キーワード抽出が完了しました。",
		slog.Int("done", stats.Done),
		slog.Int("failed", stats.Failed),
		slog.Int("not_applicable", stats.NotApplicable),
		slog.Int("cache_hits", stats.CacheHits))
	return stats, nil
}

func (a *Annotator) runSequential(ctx context.Context, ds *dataset.Dataset, reviewField string, pending []int, c *committer) error {
	for _, idx := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("キーワード抽出が中断されました: %w", err)
		}
		res := a.Extractor.Extract(ctx, ds.Records[idx].Get(reviewField))
		if err := interrupted(ctx, res); err != nil {
			return fmt.Errorf("キーワード抽出が中断されました: %w", err)
		}
		if err := c.commit(ctx, idx, res); err != nil {
			return err
		}
	}
	return nil
}

// runPool は行インデックスをキーとするタスクを最大 Parallel 件まで同時に実行します。
// 書き込みと進捗通知は committer のロック下で直列化されます。
func (a *Annotator) runPool(ctx context.Context, ds *dataset.Dataset, reviewField string, pending []int, c *committer) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.parallel())

	// 読み取りはワーカー起動前に済ませ、共有レコードへの並行アクセスを避けます。
	texts := make([]string, len(pending))
	for i, idx := range pending {
		texts[i] = ds.Records[idx].Get(reviewField)
	}

	for i, idx := range pending {
		if egCtx.Err() != nil {
			break
		}
		text := texts[i]
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res := a.Extractor.Extract(egCtx, text)
			if err := interrupted(egCtx, res); err != nil {
				return err
			}
			return c.commit(egCtx, idx, res)
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("キーワード抽出が中断されました: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("キーワード抽出が中断されました: %w", err)
	}
	return nil
}

// interrupted は呼び出し中に ctx が終了した場合にエラーを返します。
// その結果は書き込まず、行は次回の実行で再処理されます。
func interrupted(ctx context.Context, res extractor.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Interrupted {
		if res.Err != nil {
			return res.Err
		}
		return context.Canceled
	}
	return nil
}

func (a *Annotator) skip(ann dataset.Annotation) bool {
	if ann.Settled() {
		return true
	}
	return ann.Status == dataset.StatusFailed && a.RetryPolicy == SkipFailed
}

func (a *Annotator) parallel() int {
	if a.Parallel < 1 {
		return 1
	}
	return a.Parallel
}

func (a *Annotator) every() int {
	if a.ProgressEvery < 1 {
		return DefaultProgressEvery
	}
	return a.ProgressEvery
}

// committer は1行分の結果の書き込みと進捗通知を直列化します。
type committer struct {
	mu        sync.Mutex
	a         *Annotator
	ds        *dataset.Dataset
	stats     *Stats
	eligible  int
	committed int
}

func (c *committer) commit(ctx context.Context, idx int, res extractor.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.a.Columns.Set(c.ds.Records[idx], res.Annotation)
	c.committed++
	metrics.ObserveRow(res.Annotation.Status.String())

	switch res.Annotation.Status {
	case dataset.StatusDone:
		c.stats.Done++
		if res.Cached {
			c.stats.CacheHits++
		}
	case dataset.StatusFailed:
		c.stats.Failed++
		slog.Warn("キーワード抽出に失敗しました。行をエラーとして記録し、処理を継続します。",
			slog.Int("row", idx+1),
			slog.String("error", errString(res.Err)))
	case dataset.StatusNotApplicable:
		c.stats.NotApplicable++
	}

	if c.committed%c.a.every() == 0 {
		return c.reportLocked(ctx, false)
	}
	return nil
}

func (c *committer) report(ctx context.Context, final bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportLocked(ctx, final)
}

func (c *committer) reportLocked(ctx context.Context, final bool) error {
	if c.a.Reporter == nil {
		return nil
	}
	err := c.a.Reporter.Report(ctx, Progress{
		Dataset:   c.ds,
		Committed: c.committed,
		Eligible:  c.eligible,
		Final:     final,
	})
	if err != nil {
		return fmt.Errorf("進捗の通知に失敗しました: %w", err)
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
