package dataset

import "strings"

// Status はアノテーションの処理状態です。
type Status int

const (
	StatusPending Status = iota
	StatusDone
	StatusFailed
	StatusNotApplicable
)

const (
	// DefaultKeywordField はキーワード抽出結果を格納する列名です。
	DefaultKeywordField = "AI키워드"
	// DefaultStatusField は処理状態を格納する列名です。
	DefaultStatusField = "AI키워드_상태"
	// ErrorPrefix は抽出失敗時にセルへ書き込まれる文字列の接頭辞です。
	ErrorPrefix = "AI 오류: "
)

var statusNames = map[Status]string{
	StatusPending:       "pending",
	StatusDone:          "done",
	StatusFailed:        "failed",
	StatusNotApplicable: "not_applicable",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStatus は状態列の文字列を Status に変換します。
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == s {
			return st, true
		}
	}
	return StatusPending, false
}

// InferStatus は状態列を持たないデータセットのセル値から状態を推定します。
func InferStatus(value string) Status {
	switch {
	case strings.TrimSpace(value) == "":
		return StatusPending
	case strings.HasPrefix(value, ErrorPrefix):
		return StatusFailed
	default:
		return StatusDone
	}
}

// Annotation はレコードに付与されるキーワード抽出結果です。
type Annotation struct {
	Value  string
	Status Status
}

// Settled は再実行時にスキップすべき確定済みの状態かどうかを返します。
// Failed の扱いは呼び出し側のリトライ方針に委ねます。
func (a Annotation) Settled() bool {
	return a.Status == StatusDone || a.Status == StatusNotApplicable
}

// AnnotationColumns はアノテーションを格納する列の組です。
type AnnotationColumns struct {
	Keyword string
	Status  string
}

// DefaultAnnotationColumns は既定の列名を返します。
func DefaultAnnotationColumns() AnnotationColumns {
	return AnnotationColumns{Keyword: DefaultKeywordField, Status: DefaultStatusField}
}

// Owns は列名がアノテーション用の列かどうかを返します。
func (c AnnotationColumns) Owns(field string) bool {
	return field == c.Keyword || field == c.Status
}

// Ensure はデータセットにアノテーション列を追加します。
// 既存のキーワード列に値があり状態列が無い場合、状態はセル値から推定して埋めます。
func (c AnnotationColumns) Ensure(d *Dataset) {
	hadStatus := d.HasField(c.Status)
	d.EnsureField(c.Keyword)
	d.EnsureField(c.Status)
	if hadStatus {
		return
	}
	for _, r := range d.Records {
		r[c.Status] = InferStatus(r[c.Keyword]).String()
	}
}

// Get はレコードのアノテーションを返します。
func (c AnnotationColumns) Get(r Record) Annotation {
	value := r[c.Keyword]
	if st, ok := ParseStatus(r[c.Status]); ok {
		return Annotation{Value: value, Status: st}
	}
	return Annotation{Value: value, Status: InferStatus(value)}
}

// Set はレコードにアノテーションを書き込みます。
func (c AnnotationColumns) Set(r Record, a Annotation) {
	r[c.Keyword] = a.Value
	r[c.Status] = a.Status.String()
}
