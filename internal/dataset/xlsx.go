package dataset

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"
)

// メタデータ用として読み飛ばすシート名
var skipSheets = map[string]bool{
	"info":     true,
	"metadata": true,
	"about":    true,
	"readme":   true,
	"notes":    true,
}

// ReadXLSX は Excel ファイルの最初のデータシートを Dataset として読み込みます。
// 先頭の空でない行をヘッダーとし、各行はヘッダーの列数に揃えます。
func ReadXLSX(content []byte) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("Excelファイルのオープンに失敗しました: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excelファイルにシートがありません")
	}

	sheetName := sheets[len(sheets)-1]
	for _, sheet := range sheets {
		if !skipSheets[strings.ToLower(sheet)] {
			sheetName = sheet
			break
		}
	}
	slog.Debug("Excelシートを選択しました。", slog.String("sheet", sheetName))

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("Excel行の読み込みに失敗しました: %w", err)
	}

	// 先頭の空行を読み飛ばす
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return New(nil), nil
	}

	ds := New(rows[0])
	ds.SourceEncoding = "xlsx"
	for _, row := range rows[1:] {
		if len(row) > len(ds.Fields) {
			row = row[:len(ds.Fields)]
		}
		if err := ds.Append(row); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
