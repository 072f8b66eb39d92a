package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsa_workflow_runs_total",
		Help: "Train and predict workflow runs by result",
	}, []string{"workflow", "result"})

	workflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gsa_workflow_duration_seconds",
		Help:    "Duration of train and predict workflows",
		Buckets: prometheus.DefBuckets,
	}, []string{"workflow"})

	streamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gsa_stream_clients",
		Help: "Connected websocket clients",
	})
)
