package metrics

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "race_report_builds_total",
			Help: "Total report builds",
		},
		[]string{"result"}, // success|failure
	)

	BuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "race_report_build_duration_seconds",
			Help:    "Duration of reading, parsing and joining the race files",
			Buckets: prometheus.DefBuckets,
		},
	)

	RendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "race_report_renders_total",
			Help: "Total rendered report payloads",
		},
		[]string{"format"},
	)

	DurationCollisions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "race_report_duration_collisions_total",
			Help: "Report entries overwritten by another entry with the same formatted duration",
		},
	)

	AsyncRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "race_report_async_requests_total",
			Help: "Report requests handled from the queue",
		},
		[]string{"status"}, // Success|Failure
	)
)

func init() {
	prometheus.MustRegister(BuildsTotal)
	prometheus.MustRegister(BuildDuration)
	prometheus.MustRegister(RendersTotal)
	prometheus.MustRegister(DurationCollisions)
	prometheus.MustRegister(AsyncRequestsTotal)
}

func Register(r *mux.Router) {
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}
