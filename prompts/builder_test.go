package prompts

import (
	"strings"
	"testing"
)

func TestBuildKeyword(t *testing.T) {
	b := NewKeywordPromptBuilder()
	if err := b.Err(); err != nil {
		t.Fatalf("template parse error: %v", err)
	}

	review := "바다뷰가 멋지고 {{ 중괄호 }} 도 그대로"
	got, err := b.BuildKeyword(KeywordTemplateData{ReviewText: review, KeywordCount: "3"})
	if err != nil {
		t.Fatalf("BuildKeyword() error: %v", err)
	}

	for _, want := range []string{review, "3개", "여름, 겨울, 봄, 가을", "한글"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt should contain %q:\n%s", want, got)
		}
	}
}

func TestBuildKeywordRejectsBlankReview(t *testing.T) {
	if _, err := NewKeywordPromptBuilder().BuildKeyword(KeywordTemplateData{ReviewText: "  "}); err == nil {
		t.Error("BuildKeyword() should fail for blank review text")
	}
}

func TestBuilderKeepsParseError(t *testing.T) {
	b := NewPromptBuilder("broken", "{{ .ReviewText ")
	if b.Err() == nil {
		t.Fatal("expected parse error")
	}
	if _, err := b.BuildKeyword(KeywordTemplateData{ReviewText: "x"}); err == nil {
		t.Error("BuildKeyword() should fail when the template did not parse")
	}
}
