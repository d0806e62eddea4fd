package draws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once at package load; the scheduler updates these as draws
// execute.
var schedulerMetrics = newMetrics("scheduler")

type metrics struct {
	// Draws settled since process start
	drawsExecuted prometheus.Counter

	// Failed draw executions since process start
	drawFailures prometheus.Counter

	// Mining time of the last block in milliseconds
	miningTime prometheus.Gauge

	// Height of the latest ledger block
	chainHeight prometheus.Gauge
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		drawsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draws_executed",
			Help:      "Draws settled since process start",
		}),
		drawFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_failures",
			Help:      "Failed draw executions since process start",
		}),
		miningTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_mining_time",
			Help:      "Mining time of the last block in milliseconds",
		}),
		chainHeight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chain_height",
			Help:      "Height of the latest ledger block",
		}),
	}
}
