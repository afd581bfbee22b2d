package dataset

import (
	"fmt"
	"strings"
)

// EncodingError は入力をどのエンコーディングでも表形式として解析できなかったことを表します。
// 行処理の前に発生する致命的なエラーです。
type EncodingError struct {
	// Tried は試行したエンコーディング名です (試行順)。
	Tried []string
	// Preview は先頭バイトを寛容にデコードしたプレビューです。
	Preview string
	Err     error
}

func (e *EncodingError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "CSVのエンコーディング/形式を判別できませんでした (試行: %s)。", strings.Join(e.Tried, ", "))
	sb.WriteString("Excelで「CSV UTF-8 (コンマ区切り)」形式で保存し直し、先頭行にヘッダーがあることを確認してください。")
	if e.Err != nil {
		fmt.Fprintf(&sb, " 最後のエラー: %v。", e.Err)
	}
	if e.Preview != "" {
		fmt.Fprintf(&sb, " 先頭プレビュー: %q", e.Preview)
	}
	return sb.String()
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
