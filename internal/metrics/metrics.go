package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	wizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "wizard_transitions_total",
			Help:      "Wizard step transitions by target step.",
		},
		[]string{"step"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "bookings_created_total",
			Help:      "Reservations committed to the booking store.",
		},
	)

	capacityConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "capacity_conflicts_total",
			Help:      "Submissions rejected because the slot filled up.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, wizardTransitions, bookingsCreated, capacityConflicts)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition increments the wizard transition counter for a step.
func IncTransition(step string) {
	wizardTransitions.WithLabelValues(step).Inc()
}

// IncBookingCreated counts a committed reservation.
func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncCapacityConflict counts a lost capacity race.
func IncCapacityConflict() {
	capacityConflicts.Inc()
}
