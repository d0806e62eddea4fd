package routes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once at package load; handlers update these as verification
// requests come in.
var auditMetrics = newMetrics("audit")

type metrics struct {
	// Ticket verifications served since process start
	ticketVerifications prometheus.Counter

	// Draw verifications served since process start
	drawVerifications prometheus.Counter

	// Full chain verifications served since process start
	chainVerifications prometheus.Counter

	// Verifications that found the subject invalid
	invalidResults prometheus.Counter
}

func newMetrics(namespace string) *metrics {
	return &metrics{
		ticketVerifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_verifications",
			Help:      "Ticket verifications served since process start",
		}),
		drawVerifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draw_verifications",
			Help:      "Draw verifications served since process start",
		}),
		chainVerifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_verifications",
			Help:      "Full chain verifications served since process start",
		}),
		invalidResults: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_results",
			Help:      "Verifications that found the subject invalid",
		}),
	}
}
