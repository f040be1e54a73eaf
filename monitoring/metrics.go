package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_created_total",
			Help: "Registrations created, by pricing kind",
		},
		[]string{"kind"},
	)

	paymentsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_confirmed_total",
			Help: "Registrations transitioned to confirmed via payment confirmation",
		},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued per event",
		},
		[]string{"event_id"},
	)

	ticketValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validations_total",
			Help: "Ticket validation attempts by outcome",
		},
		[]string{"outcome"},
	)

	validationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_validation_duration_seconds",
			Help:    "Duration of ticket validation requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)
)

// TrackRegistrationCreated records a new registration; kind is "free" or
// "paid".
func TrackRegistrationCreated(kind string) {
	registrationsCreated.WithLabelValues(kind).Inc()
}

func TrackPaymentConfirmed() {
	paymentsConfirmed.Inc()
}

func TrackTicketIssued(eventID string) {
	ticketsIssued.WithLabelValues(eventID).Inc()
}

func TrackValidation(outcome string) {
	ticketValidations.WithLabelValues(outcome).Inc()
}

func ObserveValidationDuration(seconds float64) {
	validationDuration.Observe(seconds)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
