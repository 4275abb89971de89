// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はストアフロントのPrometheusメトリクスを収集する。
type Collector struct {
	catalogSuccess *prometheus.CounterVec
	catalogFail    *prometheus.CounterVec
	catalogLatency prometheus.Histogram
	httpStatus     *prometheus.CounterVec
	cartMutations  *prometheus.CounterVec
	ordersPlaced   prometheus.Counter
	loginSuccess   prometheus.Counter
	loginFail      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		catalogSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_catalog_success_total",
			Help: "カタログAPI呼び出し成功の合計数",
		}, []string{"operation"}),
		catalogFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_catalog_fail_total",
			Help: "カタログAPI呼び出し失敗の合計数",
		}, []string{"operation"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "storefront_catalog_latency_seconds",
			Help:    "カタログAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "カート状態遷移の操作別の合計数",
		}, []string{"operation"}),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "作成された注文の合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.catalogSuccess,
		c.catalogFail,
		c.catalogLatency,
		c.httpStatus,
		c.cartMutations,
		c.ordersPlaced,
		c.loginSuccess,
		c.loginFail,
	)

	return c
}

// RecordCatalogSuccess はカタログAPI呼び出し成功を記録する。
func (c *Collector) RecordCatalogSuccess(operation string) {
	c.catalogSuccess.WithLabelValues(operation).Inc()
}

// RecordCatalogFailure はカタログAPI呼び出し失敗を記録する。
func (c *Collector) RecordCatalogFailure(operation string) {
	c.catalogFail.WithLabelValues(operation).Inc()
}

// RecordCatalogLatency はカタログAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordCatalogLatency(duration time.Duration) {
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCartMutation はカート状態遷移を操作名付きで記録する。
func (c *Collector) RecordCartMutation(operation string) {
	c.cartMutations.WithLabelValues(operation).Inc()
}

// RecordOrderPlaced は注文作成を記録する。
func (c *Collector) RecordOrderPlaced() {
	c.ordersPlaced.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
