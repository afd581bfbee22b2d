package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-utils/iohandler"

	"github.com/shouni/review-keyword-pipe-go/internal/dataset"
)

const previewLines = 10

// CSVOutputGenerator は OutputGenerator インターフェースの具象実装です。
// 依存関係はコンストラクタで注入されます。
type CSVOutputGenerator struct {
	writer OutputWriter
}

// NewCSVOutputGenerator は CSVOutputGenerator の新しいインスタンスを作成します。
func NewCSVOutputGenerator(writer OutputWriter) *CSVOutputGenerator {
	return &CSVOutputGenerator{writer: writer}
}

// Generate はアノテーション済みデータセットと集計表をBOM付きUTF-8のCSVで出力します。
// 集計表の出力先が空の場合は、標準出力に冒頭のプレビューを表示します。
func (g *CSVOutputGenerator) Generate(ctx context.Context, opts CmdOptions, annotated, summary *dataset.Dataset) error {
	if opts.OutputPath != "" {
		if err := g.writeCSV(ctx, opts.OutputPath, annotated); err != nil {
			return fmt.Errorf("アノテーション結果の出力に失敗しました: %w", err)
		}
		slog.Info("アノテーション結果をファイルに書き込みました", slog.String("file", opts.OutputPath))
	}

	if opts.SummaryOutputPath != "" {
		if err := g.writeCSV(ctx, opts.SummaryOutputPath, summary); err != nil {
			return fmt.Errorf("キーワード集計表の出力に失敗しました: %w", err)
		}
		slog.Info("キーワード集計表をファイルに書き込みました", slog.String("file", opts.SummaryOutputPath))
		return nil
	}

	return g.outputPreview(summary)
}

func (g *CSVOutputGenerator) writeCSV(ctx context.Context, path string, ds *dataset.Dataset) error {
	content, err := dataset.EncodeCSV(ds)
	if err != nil {
		return err
	}
	return g.writer.Write(ctx, path, content, ContentTypeCSV)
}

// outputPreview は、集計表の冒頭を標準出力に書き出します。
func (g *CSVOutputGenerator) outputPreview(summary *dataset.Dataset) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(summary.Fields, " | "))
	sb.WriteString("\n")

	end := summary.Len()
	if end > previewLines {
		end = previewLines
	}
	for i := 0; i < end; i++ {
		sb.WriteString(strings.Join(summary.Row(i), " | "))
		sb.WriteString("\n")
	}
	if summary.Len() > previewLines {
		fmt.Fprintf(&sb, "... (全 %d 件)\n", summary.Len())
	}

	return iohandler.WriteOutputString("", sb.String())
}

// 型アサーションチェック
var _ OutputGenerator = (*CSVOutputGenerator)(nil)
