package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はサービス単位のPrometheusメトリクス。
// メトリクス名は既存ダッシュボードとの互換性のため変更しないこと。
type Metrics struct {
	// registry はこのサービス専用のレジストリ。
	registry *prometheus.Registry
	// requests はエンドポイントごとのリクエスト数。
	requests *prometheus.CounterVec
	// latency はエンドポイントごとの処理時間。
	latency *prometheus.HistogramVec
}

// NewMetrics は独立したレジストリにメトリクスを登録して返す。
func NewMetrics(service string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total HTTP requests",
				ConstLabels: prometheus.Labels{"service": service},
			},
			[]string{"method", "endpoint"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Request latency",
				ConstLabels: prometheus.Labels{"service": service},
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.latency,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveRequest はリクエスト1件分のカウンタとレイテンシを記録する。
func (m *Metrics) ObserveRequest(method, endpoint string, elapsed time.Duration) {
	m.requests.WithLabelValues(method, endpoint).Inc()
	m.latency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RequestCounter はメソッドとエンドポイントに対応するカウンタを返す。
func (m *Metrics) RequestCounter(method, endpoint string) prometheus.Counter {
	return m.requests.WithLabelValues(method, endpoint)
}

// Register はサービス固有のコレクタを同じレジストリに追加する。
func (m *Metrics) Register(cs ...prometheus.Collector) {
	m.registry.MustRegister(cs...)
}

// Handler は /metrics 用のテキスト形式エクスポジションハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
