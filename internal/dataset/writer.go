package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM は表計算ソフトがUTF-8として認識するための先頭マークです。
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV はデータセットをBOM付きUTF-8のカンマ区切りで書き出します。
// カンマや引用符を含む値は RFC 4180 に従って引用されます。
func WriteCSV(w io.Writer, d *Dataset) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("BOMの書き込みに失敗しました: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(d.Fields); err != nil {
		return fmt.Errorf("ヘッダーの書き込みに失敗しました: %w", err)
	}
	for i := range d.Records {
		if err := cw.Write(d.Row(i)); err != nil {
			return fmt.Errorf("%d 行目の書き込みに失敗しました: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV は WriteCSV の結果をバイト列で返します。
func EncodeCSV(d *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
