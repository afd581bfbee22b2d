package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "review_keyword"

var (
	RowsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rows_total", Help: "Annotated rows by resulting status."},
		[]string{"status"},
	)
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "provider_calls_total", Help: "Summarization provider calls."},
		[]string{"provider", "result"}, // result: ok|error
	)
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "provider_call_duration_seconds",
			Help:    "Summarization provider call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Keyword cache hits/misses/sets/errors."},
		[]string{"cache", "event"},
	)
)

// InitRegistry は本ツールのメトリクスを登録したレジストリを返します。
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(RowsProcessed, ProviderCalls, ProviderLatency, CacheEvents)
	return reg
}

// MetricsHandler はレジストリを公開する HTTP ハンドラを返します。
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve は addr で /metrics を公開し、ctx の終了時にサーバーを停止します。addr が空なら何もしません。
func Serve(ctx context.Context, addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("メトリクスサーバーを起動しました。", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("メトリクスサーバーが停止しました。", slog.String("error", err.Error()))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func ObserveRow(status string) {
	RowsProcessed.WithLabelValues(status).Inc()
}

func ObserveProvider(provider string, err error, dur time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ProviderCalls.WithLabelValues(provider, result).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|error
	CacheEvents.WithLabelValues(cache, event).Inc()
}
