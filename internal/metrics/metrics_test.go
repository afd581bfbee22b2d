package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shouni/review-keyword-pipe-go/internal/metrics"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := metrics.InitRegistry()

	metrics.ObserveRow("done")
	metrics.ObserveProvider("gemini", nil, 30*time.Millisecond)
	metrics.ObserveProvider("gemini", errors.New("quota"), 10*time.Millisecond)
	metrics.ObserveCache("sqlite", "hit")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	metrics.MetricsHandler(reg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, want := range []string{
		"review_keyword_rows_total",
		`review_keyword_provider_calls_total{provider="gemini",result="error"}`,
		"review_keyword_provider_call_duration_seconds",
		`review_keyword_cache_events_total{cache="sqlite",event="hit"}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output", want)
		}
	}
}
