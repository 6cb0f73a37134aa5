package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineload_probe_total",
			Help: "Total number of endpoint probes by outcome",
		},
		[]string{"pool", "result"},
	)

	probeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lineload_probe_duration_seconds",
			Help:    "Endpoint probe duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		},
		[]string{"pool"},
	)
)

const (
	resultAlive   = "alive"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)
