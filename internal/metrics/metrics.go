// Package metrics exposes Prometheus counters for the refresh pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_fetch_total",
			Help: "Provider queries by query class and outcome.",
		},
		[]string{"query", "outcome"},
	)
	updateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_updates_total",
			Help: "Update runs by result.",
		},
		[]string{"result"},
	)
	persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weather_persist_failures_total",
			Help: "Snapshot writes that failed.",
		},
	)
	notificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_notifications_total",
			Help: "Change notifications emitted by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(fetchCounter, updateCounter, persistFailures, notificationCounter)
}

// ObserveFetch counts one provider query. outcome is "ok" or an error kind.
func ObserveFetch(query, outcome string) {
	fetchCounter.WithLabelValues(query, outcome).Inc()
}

// ObserveUpdate counts one update run ("merged", "skipped", "empty").
func ObserveUpdate(result string) {
	updateCounter.WithLabelValues(result).Inc()
}

func ObservePersistFailure() {
	persistFailures.Inc()
}

func ObserveNotification(reason string) {
	notificationCounter.WithLabelValues(reason).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
