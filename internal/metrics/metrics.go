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
// ハンドラー層から利用する。
type MetricsCollector interface {
	RecordLoginSuccess(method string)
	RecordLoginFailure(method string)
	RecordRegistration()
	RecordRecipeSuccess()
	RecordRecipeFailure()
	RecordRecipeLatency(duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginSuccess  *prometheus.CounterVec
	loginFail     *prometheus.CounterVec
	registrations prometheus.Counter
	recipeSuccess prometheus.Counter
	recipeFail    prometheus.Counter
	recipeLatency prometheus.Histogram
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kondate_login_success_total",
			Help: "ログイン成功の合計数（認証方式別）",
		}, []string{"method"}),
		loginFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kondate_login_fail_total",
			Help: "ログイン失敗の合計数（認証方式別）",
		}, []string{"method"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kondate_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
		recipeSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kondate_recipe_success_total",
			Help: "レシピ生成成功の合計数",
		}),
		recipeFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kondate_recipe_fail_total",
			Help: "レシピ生成失敗の合計数",
		}),
		recipeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kondate_recipe_latency_seconds",
			Help:    "レシピ生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kondate_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFail,
		c.registrations,
		c.recipeSuccess,
		c.recipeFail,
		c.recipeLatency,
		c.httpStatus,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。methodはpasswordまたはgoogle。
func (c *Collector) RecordLoginSuccess(method string) {
	c.loginSuccess.WithLabelValues(method).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(method string) {
	c.loginFail.WithLabelValues(method).Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordRecipeSuccess はレシピ生成成功を記録する。
func (c *Collector) RecordRecipeSuccess() {
	c.recipeSuccess.Inc()
}

// RecordRecipeFailure はレシピ生成失敗を記録する。
func (c *Collector) RecordRecipeFailure() {
	c.recipeFail.Inc()
}

// RecordRecipeLatency はレシピ生成のレイテンシを記録する。
func (c *Collector) RecordRecipeLatency(duration time.Duration) {
	c.recipeLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
