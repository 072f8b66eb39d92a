package advisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"game-stock-advisor/console/internal/util"
)

var (
	backendRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsa_backend_requests_total",
		Help: "Backend calls by operation and outcome",
	}, []string{"op", "outcome"})

	backendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gsa_backend_request_duration_seconds",
		Help:    "Duration of backend calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func observeBackend(op, outcome string, timer util.Timer) {
	backendRequests.WithLabelValues(op, outcome).Inc()
	backendDuration.WithLabelValues(op).Observe(timer.Elapsed().Seconds())
}
