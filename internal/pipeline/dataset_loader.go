package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

// FileDatasetLoader は DatasetLoader インターフェースの具象実装です。
// 入力全体をメモリに読み込み、エンコーディングを判定しながら Dataset に変換します。
type FileDatasetLoader struct {
	input  InputReader
	reader *dataset.Reader
}

// NewFileDatasetLoader は FileDatasetLoader の新しいインスタンスを作成します。
func NewFileDatasetLoader(input InputReader, reader *dataset.Reader) *FileDatasetLoader {
	if reader == nil {
		reader = dataset.NewReader()
	}
	return &FileDatasetLoader{input: input, reader: reader}
}

// Load は入力を読み込みます。--resume 指定時に既存の出力があれば、そちらを読み込みます。
func (l *FileDatasetLoader) Load(ctx context.Context, opts CmdOptions) (*dataset.Dataset, error) {
	path, err := l.sourcePath(ctx, opts)
	if err != nil {
		return nil, err
	}

	rc, err := l.input.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// 候補エンコーディングごとに先頭から読み直すため、全体をメモリに保持します。
	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("入力の読み込みに失敗しました (%s): %w", path, err)
	}

	ds, err := l.reader.ReadFile(path, content)
	if err != nil {
		return nil, err
	}

	slog.Info("入力を読み込みました。",
		slog.String("path", path),
		slog.String("encoding", ds.SourceEncoding),
		slog.Int("rows", ds.Len()),
		slog.Any("fields", ds.Fields))
	return ds, nil
}

func (l *FileDatasetLoader) sourcePath(ctx context.Context, opts CmdOptions) (string, error) {
	if opts.InputPath == "" {
		return "", fmt.Errorf("入力ファイルを指定してください。-i/--input オプションでCSVまたはExcelファイルを指定してください。")
	}
	if !opts.Resume || opts.OutputPath == "" {
		return opts.InputPath, nil
	}

	ok, err := l.input.Exists(ctx, opts.OutputPath)
	if err != nil {
		return "", err
	}
	if !ok {
		slog.Info("再開用の出力が見つからないため、入力ファイルから開始します。", slog.String("output", opts.OutputPath))
		return opts.InputPath, nil
	}
	slog.Info("前回の出力から処理を再開します。", slog.String("output", opts.OutputPath))
	return opts.OutputPath, nil
}

// 型アサーションチェック
var _ DatasetLoader = (*FileDatasetLoader)(nil)
