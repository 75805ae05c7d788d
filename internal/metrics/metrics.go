// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// Gatewayとプロキシから利用する。
type MetricsCollector interface {
	RecordRequest(method, outcome string, duration time.Duration)
	RecordTokenRenewal()
	RecordAuthFailure()
	RecordProxyResponse(statusCode int, duration time.Duration)
	RecordRateLimited()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	tokenRenewals  prometheus.Counter
	authFailures   prometheus.Counter
	proxyStatus    *prometheus.CounterVec
	proxyLatency   prometheus.Histogram
	rateLimited    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartlib_gateway_requests_total",
			Help: "バックエンドAPI呼び出しの結果別の合計数",
		}, []string{"method", "outcome"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartlib_gateway_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		tokenRenewals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartlib_gateway_token_renewals_total",
			Help: "トークン自動更新の合計数",
		}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartlib_gateway_auth_failures_total",
			Help: "認証失敗によるログアウトの合計数",
		}),
		proxyStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartlib_proxy_responses_total",
			Help: "プロキシのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		proxyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartlib_proxy_latency_seconds",
			Help:    "プロキシ経由のリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartlib_proxy_rate_limited_total",
			Help: "レート制限により拒否されたリクエストの合計数",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.tokenRenewals,
		c.authFailures,
		c.proxyStatus,
		c.proxyLatency,
		c.rateLimited,
	)

	return c
}

// RecordRequest はAPI呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordRequest(method, outcome string, duration time.Duration) {
	c.requests.WithLabelValues(method, outcome).Inc()
	c.requestLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTokenRenewal はトークン自動更新を記録する。
func (c *Collector) RecordTokenRenewal() {
	c.tokenRenewals.Inc()
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// RecordProxyResponse はプロキシのレスポンスを記録する。
func (c *Collector) RecordProxyResponse(statusCode int, duration time.Duration) {
	c.proxyStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.proxyLatency.Observe(duration.Seconds())
}

// RecordRateLimited はレート制限による拒否を記録する。
func (c *Collector) RecordRateLimited() {
	c.rateLimited.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
