package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convivia", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method", "path", "status"})
	AlertEvaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "convivia", Name: "alert_evaluations_total", Help: "Alert rule evaluations",
	})
	AlertsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convivia", Name: "alerts_created_total", Help: "Alerts materialized, by type",
	}, []string{"type"})
	AlertInsertFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "convivia", Name: "alert_insert_failures_total", Help: "Best-effort alert inserts that failed",
	})
	BroadcastsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "convivia", Name: "broadcasts_published_total", Help: "Realtime events published",
	})
	BroadcastsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "convivia", Name: "broadcasts_dropped_total", Help: "Realtime events dropped on full client buffers",
	})
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "convivia", Name: "messages_sent_total", Help: "Messages persisted, by channel kind",
	}, []string{"kind"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "convivia", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		AlertEvaluations,
		AlertsCreated,
		AlertInsertFailures,
		BroadcastsPublished,
		BroadcastsDropped,
		MessagesSent,
		DBPing,
	)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
