// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// HTTPリクエストとリモートプラットフォーム呼び出しの2系統を記録する。
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "museofile_http_requests_total",
			Help: "HTTPリクエストの合計数（メソッド・ステータスコード別）",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "museofile_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "museofile_upstream_requests_total",
			Help: "リモートプラットフォーム呼び出しの合計数（API面・ステータスコード別）",
		}, []string{"surface", "status_code"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "museofile_upstream_request_duration_seconds",
			Help:    "リモートプラットフォーム呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"surface"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.upstreamRequests,
		c.upstreamDuration,
	)

	return c
}

// RecordHTTPRequest は受信HTTPリクエストの結果を記録する。
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordUpstreamRequest はリモートプラットフォーム呼び出しの結果を記録する。
// surfaceは"auth"または"rest"。
func (c *Collector) RecordUpstreamRequest(surface string, statusCode int, duration time.Duration) {
	c.upstreamRequests.WithLabelValues(surface, strconv.Itoa(statusCode)).Inc()
	c.upstreamDuration.WithLabelValues(surface).Observe(duration.Seconds())
}

// Middleware は受信HTTPリクエストのメトリクスを記録するミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			c.RecordHTTPRequest(r.Method, rec.statusCode, time.Since(start))
		})
	}
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
