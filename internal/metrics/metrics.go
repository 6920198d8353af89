package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igla",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igla",
			Name:      "bot_updates_total",
			Help:      "Processed Telegram updates by kind.",
		},
		[]string{"kind"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "igla",
			Name:      "reservations_created_total",
			Help:      "Successfully created reservations.",
		},
	)

	slotConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "igla",
			Name:      "slot_conflicts_total",
			Help:      "Reservation attempts rejected by the start_at unique constraint.",
		},
	)

	pricingCalcs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "igla",
			Name:      "pricing_calculations_total",
			Help:      "Pricing calculations by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, botUpdates, reservationsCreated, slotConflicts, pricingCalcs)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBotUpdate counts a processed update ("message" or "callback").
func IncBotUpdate(kind string) {
	botUpdates.WithLabelValues(kind).Inc()
}

func IncReservationCreated() {
	reservationsCreated.Inc()
}

func IncSlotConflict() {
	slotConflicts.Inc()
}

// IncPricingCalc counts an outcome: "ok", "validation_error", "config_error".
func IncPricingCalc(outcome string) {
	pricingCalcs.WithLabelValues(outcome).Inc()
}
