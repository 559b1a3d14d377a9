// Package metrics exposes Prometheus counters for the reservation core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reservation outcomes used as label values.
const (
	OutcomeGranted   = "granted"
	OutcomeExhausted = "exhausted"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// Metrics holds the registry and the counters the services increment.
type Metrics struct {
	reg *prometheus.Registry

	Reservations  *prometheus.CounterVec
	Cancellations prometheus.Counter
	LeakedSlots   prometheus.Counter
}

// New builds a Metrics with its own registry, so tests can construct as
// many instances as they like without collisions.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	return &Metrics{
		reg: reg,
		Reservations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "eventhub_reservations_total",
			Help: "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		Cancellations: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "eventhub_cancellations_total",
			Help: "Successful reservation cancellations.",
		}),
		LeakedSlots: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "eventhub_leaked_slots_total",
			Help: "Capacity units leaked when a claim compensation failed, pending reconciliation.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
