package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed keyword_extract_prompt.md
var KeywordExtractPromptTemplate string

// ----------------------------------------------------------------
// テンプレート構造体
// ----------------------------------------------------------------

// KeywordTemplateData はキーワード抽出プロンプトに埋め込む値です。
type KeywordTemplateData struct {
	ReviewText    string
	KeywordCount  string
	Language      string
	ExcludedWords string
}

// 既定値
const (
	DefaultKeywordCount = "5~8"
	DefaultLanguage     = "한글"
)

// DefaultExcludedWords はプロンプトで除外を指示する季節語です。
var DefaultExcludedWords = []string{"여름", "겨울", "봄", "가을"}

// ----------------------------------------------------------------
// ビルダー実装
// ----------------------------------------------------------------

// PromptBuilder はプロンプトの構成とテンプレート実行を管理します。
type PromptBuilder struct {
	tmpl *template.Template
	err  error
}

// NewKeywordPromptBuilder はキーワード抽出用の PromptBuilder を初期化します。
// パースに失敗した場合は、内部にエラーを保持したPromptBuilderを返します。
func NewKeywordPromptBuilder() *PromptBuilder {
	return NewPromptBuilder("keyword_extract", KeywordExtractPromptTemplate)
}

// NewPromptBuilder は任意のテンプレート文字列から PromptBuilder を初期化します。
func NewPromptBuilder(name, text string) *PromptBuilder {
	tmpl, err := template.New(name).Parse(text)
	return &PromptBuilder{tmpl: tmpl, err: err}
}

// Err は PromptBuilder の初期化（テンプレートパース）時に発生したエラーを返します。
func (b *PromptBuilder) Err() error {
	return b.err
}

// BuildKeyword は KeywordTemplateData を埋め込み、LLMへ送るための最終的なプロンプト文字列を完成させます。
// レビュー本文はそのまま埋め込みます。
func (b *PromptBuilder) BuildKeyword(data KeywordTemplateData) (string, error) {
	if b.tmpl == nil || b.err != nil {
		return "", fmt.Errorf("Keyword prompt template is not properly initialized: %w", b.err)
	}
	if strings.TrimSpace(data.ReviewText) == "" {
		return "", fmt.Errorf("Keywordプロンプト実行失敗: ReviewTextが空です (template: %s)", b.tmpl.Name())
	}

	if data.KeywordCount == "" {
		data.KeywordCount = DefaultKeywordCount
	}
	if data.Language == "" {
		data.Language = DefaultLanguage
	}
	if data.ExcludedWords == "" {
		data.ExcludedWords = strings.Join(DefaultExcludedWords, ", ")
	}

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("Keywordプロンプトの実行に失敗しました: %w", err)
	}
	return sb.String(), nil
}
