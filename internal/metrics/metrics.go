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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLogin(method string)
	RecordLoginFailure(method string)
	RecordRegistration(method string)
	RecordReviewCreated()
	RecordReviewDeleted()
	RecordWatchlistChange(op string)
	RecordCatalogRequest(statusCode int)
	RecordCatalogLatency(duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          *prometheus.CounterVec
	loginFailures   *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	reviewsCreated  prometheus.Counter
	reviewsDeleted  prometheus.Counter
	watchlistOps    *prometheus.CounterVec
	catalogStatus   *prometheus.CounterVec
	catalogLatency  prometheus.Histogram
	sessionsCleaned prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenlog_logins_total",
			Help: "ログイン成功の合計数（認証方式別）",
		}, []string{"method"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenlog_login_failures_total",
			Help: "ログイン失敗の合計数（認証方式別）",
		}, []string{"method"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenlog_registrations_total",
			Help: "アカウント新規作成の合計数（認証方式別）",
		}, []string{"method"}),
		reviewsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenlog_reviews_created_total",
			Help: "投稿されたレビューの合計数",
		}),
		reviewsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenlog_reviews_deleted_total",
			Help: "削除されたレビューの合計数",
		}),
		watchlistOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenlog_watchlist_ops_total",
			Help: "ウォッチリスト操作の合計数（操作種別）",
		}, []string{"op"}),
		catalogStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screenlog_catalog_requests_total",
			Help: "カタログAPIリクエストのHTTPステータス別の合計数",
		}, []string{"status_code"}),
		catalogLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screenlog_catalog_latency_seconds",
			Help:    "カタログAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screenlog_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.logins,
		c.loginFailures,
		c.registrations,
		c.reviewsCreated,
		c.reviewsDeleted,
		c.watchlistOps,
		c.catalogStatus,
		c.catalogLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordLogin はログイン成功を記録する。methodは"local"またはプロバイダー名。
func (c *Collector) RecordLogin(method string) {
	c.logins.WithLabelValues(method).Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure(method string) {
	c.loginFailures.WithLabelValues(method).Inc()
}

// RecordRegistration はアカウント新規作成を記録する。
func (c *Collector) RecordRegistration(method string) {
	c.registrations.WithLabelValues(method).Inc()
}

// RecordReviewCreated はレビュー投稿を記録する。
func (c *Collector) RecordReviewCreated() {
	c.reviewsCreated.Inc()
}

// RecordReviewDeleted はレビュー削除を記録する。
func (c *Collector) RecordReviewDeleted() {
	c.reviewsDeleted.Inc()
}

// RecordWatchlistChange はウォッチリスト操作を記録する。opは"add"または"remove"。
func (c *Collector) RecordWatchlistChange(op string) {
	c.watchlistOps.WithLabelValues(op).Inc()
}

// RecordCatalogRequest はカタログAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordCatalogRequest(statusCode int) {
	c.catalogStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordCatalogLatency はカタログAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordCatalogLatency(duration time.Duration) {
	c.catalogLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
