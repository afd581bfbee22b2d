package dataset

import (
	"fmt"
	"strings"
)

// Record は1行分のデータで、フィールド名から値への対応を保持します。
// 存在しないフィールドは空文字列として扱います。
type Record map[string]string

// Get は指定フィールドの値を返します。
func (r Record) Get(field string) string {
	return r[field]
}

// Dataset は共通のフィールド順序を持つレコードの並びです。
// すべてのレコードは Fields と同じフィールド集合を持ちます。
type Dataset struct {
	Fields  []string
	Records []Record

	// SourceEncoding は読み込み時に採用されたエンコーディング名です (CSVのみ)。
	SourceEncoding string
}

// New は指定フィールドを持つ空の Dataset を作成します。
// フィールド名は NormalizeFields で正規化されます。
func New(fields []string) *Dataset {
	return &Dataset{Fields: NormalizeFields(fields)}
}

// Len はレコード数を返します。
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasField はフィールドが存在するかどうかを返します。
func (d *Dataset) HasField(name string) bool {
	for _, f := range d.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// EnsureField はフィールドが存在しなければ末尾に追加し、全レコードに空値を設定します。
func (d *Dataset) EnsureField(name string) {
	if d.HasField(name) {
		return
	}
	d.Fields = append(d.Fields, name)
	for _, r := range d.Records {
		r[name] = ""
	}
}

// Append はフィールド順の値スライスからレコードを追加します。
// 値が不足する場合は空文字列で埋め、フィールド数を超える場合はエラーを返します。
func (d *Dataset) Append(values []string) error {
	if len(values) > len(d.Fields) {
		return fmt.Errorf("列数が一致しません: ヘッダー %d 列に対して %d 列の行があります", len(d.Fields), len(values))
	}
	rec := make(Record, len(d.Fields))
	for i, f := range d.Fields {
		if i < len(values) {
			rec[f] = values[i]
		} else {
			rec[f] = ""
		}
	}
	d.Records = append(d.Records, rec)
	return nil
}

// Row は i 番目のレコードをフィールド順の値スライスとして返します。
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.Fields))
	for j, f := range d.Fields {
		row[j] = d.Records[i][f]
	}
	return row
}

// Column は指定フィールドの値をレコード順に返します。
func (d *Dataset) Column(field string) []string {
	col := make([]string, len(d.Records))
	for i, r := range d.Records {
		col[i] = r[field]
	}
	return col
}

// NormalizeFields はフィールド名の前後の空白とBOMを除去し、重複名には ".1", ".2" を付与します。
func NormalizeFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	seen := make(map[string]int, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(strings.ReplaceAll(f, "\ufeff", ""))
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out = append(out, name)
	}
	return out
}
