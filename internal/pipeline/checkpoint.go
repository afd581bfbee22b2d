package pipeline

import (
	"context"
	"log/slog"

	"github.com/shouni/review-keyword-pipe-go/internal/annotator"
	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

// CheckpointReporter は進捗をログに出力し、途中経過のデータセットを出力先に書き込みます。
// 中断後は --resume で書き込み済みの行から再開できます。
type CheckpointReporter struct {
	writer OutputWriter
	path   string
}

// NewCheckpointReporter は CheckpointReporter を作成します。path が空の場合はログ出力のみ行います。
func NewCheckpointReporter(writer OutputWriter, path string) *CheckpointReporter {
	return &CheckpointReporter{writer: writer, path: path}
}

// Report は進捗を記録します。チェックポイントの書き込み失敗は処理を止めません。
func (c *CheckpointReporter) Report(ctx context.Context, p annotator.Progress) error {
	slog.Info("キーワード抽出の進捗",
		slog.Int("committed", p.Committed),
		slog.Int("eligible", p.Eligible),
		slog.Bool("final", p.Final))

	// 最終結果は OutputGenerator が書き込みます。
	if c.path == "" || p.Final {
		return nil
	}

	content, err := dataset.EncodeCSV(p.Dataset)
	if err != nil {
		slog.Warn("チェックポイントのエンコードに失敗しました。", slog.String("error", err.Error()))
		return nil
	}
	if err := c.writer.Write(ctx, c.path, content, ContentTypeCSV); err != nil {
		slog.Warn("チェックポイントの書き込みに失敗しました。", slog.String("path", c.path), slog.String("error", err.Error()))
		return nil
	}
	slog.Debug("チェックポイントを書き込みました。", slog.String("path", c.path))
	return nil
}

// 型アサーションチェック
var _ annotator.ProgressReporter = (*CheckpointReporter)(nil)
