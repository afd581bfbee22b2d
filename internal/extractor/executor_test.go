package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

func newOpenAITestServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		var req struct {
			Model string `json:"model"`
		}
		_ = json.Unmarshal(raw, &req)
		gotModel = req.Model

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &gotModel
}

func TestOpenAISummarizer(t *testing.T) {
	srv, gotModel := newOpenAITestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 0,
		"model": "gpt-3.5-turbo",
		"choices": [{"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": "바다뷰, 조용함"}}]
	}`)

	s, err := NewOpenAISummarizer("test-key", "", NewRateLimiter(0),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Summarize(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}
	if got != "바다뷰, 조용함" {
		t.Errorf("Summarize() = %q", got)
	}
	if *gotModel != DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", *gotModel, DefaultOpenAIModel)
	}
	if s.Model() != "openai/"+DefaultOpenAIModel {
		t.Errorf("Model() = %q", s.Model())
	}
}

func TestOpenAISummarizerWrapsFailures(t *testing.T) {
	srv, _ := newOpenAITestServer(t, http.StatusTooManyRequests,
		`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`)

	s, err := NewOpenAISummarizer("test-key", "gpt-4o-mini", NewRateLimiter(0),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.Summarize(context.Background(), "prompt")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Summarize() error = %v, want *ProviderError", err)
	}
	if perr.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q", perr.Provider)
	}
}

func TestNewOpenAISummarizerRequiresKey(t *testing.T) {
	if _, err := NewOpenAISummarizer("", "", nil); err == nil {
		t.Error("NewOpenAISummarizer without key should fail")
	}
}

func TestSummarizeHonorsCancelledContext(t *testing.T) {
	s, err := NewOpenAISummarizer("test-key", "", NewRateLimiter(DefaultLLMRateLimit),
		option.WithBaseURL("http://127.0.0.1:0/"), option.WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Summarize(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Summarize() error = %v, want context.Canceled", err)
	}
}
