package failover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineload_check_cycles_total",
			Help: "Total number of health check cycles by pool and mode",
		},
		[]string{"pool", "mode"},
	)

	disabledEndpoints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lineload_disabled_endpoints",
			Help: "Number of endpoints currently disabled",
		},
		[]string{"scope"},
	)

	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lineload_notifications_total",
			Help: "Total number of notifications emitted",
		},
		[]string{"event"},
	)
)
