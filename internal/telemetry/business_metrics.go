package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CheckoutMetrics holds Prometheus metrics for the checkout funnel, from
// session setup through encryption of the payment request.
type CheckoutMetrics struct {
	// Session setup
	SessionsStarted    *prometheus.CounterVec
	SessionSetupFailed *prometheus.CounterVec
	ActiveFlows        prometheus.Gauge
	FlowsExpired       prometheus.Counter

	// Product selection
	ProductSelected    *prometheus.CounterVec
	ProductUnavailable *prometheus.CounterVec
	IINLookups         *prometheus.CounterVec
	ProductSwitched    *prometheus.CounterVec

	// Payment
	PaymentAttempts         *prometheus.CounterVec
	PaymentValidationFailed *prometheus.CounterVec
	PaymentPrepared         *prometheus.CounterVec
	PaymentFailed           *prometheus.CounterVec

	// External API performance
	ClientAPILatency *prometheus.HistogramVec
}

// NewCheckoutMetrics creates the checkout metrics and registers them with reg.
func NewCheckoutMetrics(namespace string, reg prometheus.Registerer) *CheckoutMetrics {
	if namespace == "" {
		namespace = "onlinepayments"
	}

	subsystem := "checkout"
	factory := promauto.With(reg)

	return &CheckoutMetrics{
		// =======================================================================
		// Session Setup
		// =======================================================================
		SessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_started_total",
				Help:      "Total client sessions set up from the start screen",
			},
			[]string{"source"}, // source: form, paste
		),
		SessionSetupFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_setup_failed_total",
				Help:      "Total start screen submissions that did not produce a session",
			},
			[]string{"reason"}, // reason: validation, transport, api
		),
		ActiveFlows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "active_flows",
				Help:      "Checkout flows currently held in memory",
			},
		),
		FlowsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "flows_expired_total",
				Help:      "Total checkout flows dropped after their TTL",
			},
		),

		// =======================================================================
		// Product Selection
		// =======================================================================
		ProductSelected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_selected_total",
				Help:      "Total payment items selected on the overview",
			},
			[]string{"product_id", "kind"}, // kind: product, account_on_file
		),
		ProductUnavailable: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_unavailable_total",
				Help:      "Total selections of products the card form cannot offer",
			},
			[]string{"product_id"},
		),
		IINLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "iin_lookups_total",
				Help:      "Total card number prefix lookups by result",
			},
			[]string{"status"}, // status: SUPPORTED, EXISTING_BUT_NOT_ALLOWED, UNKNOWN, error
		),
		ProductSwitched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_switched_total",
				Help:      "Total card form reconfigurations after a prefix lookup",
			},
			[]string{"product_id"},
		),

		// =======================================================================
		// Payment
		// =======================================================================
		PaymentAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total pay button presses",
			},
			[]string{"product_id"},
		),
		PaymentValidationFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_validation_failed_total",
				Help:      "Total payment attempts blocked by field validation",
			},
			[]string{"product_id"},
		),
		PaymentPrepared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_prepared_total",
				Help:      "Total payment requests encrypted for the merchant server",
			},
			[]string{"product_id", "tokenize"},
		),
		PaymentFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_failed_total",
				Help:      "Total payment requests that could not be prepared",
			},
			[]string{"product_id", "failure_reason"}, // failure_reason: transport, api, encryption
		),

		// =======================================================================
		// External API Performance
		// =======================================================================
		ClientAPILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "client_api_duration_seconds",
				Help:      "Client API call duration (helps differentiate app slowness from platform issues)",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation", "outcome"}, // outcome: ok, error
		),
	}
}

// Global instance for easy access from handlers
var Checkout *CheckoutMetrics

// InitCheckoutMetrics initializes the global checkout metrics instance on
// the default registry.
func InitCheckoutMetrics(namespace string) *CheckoutMetrics {
	Checkout = NewCheckoutMetrics(namespace, prometheus.DefaultRegisterer)
	return Checkout
}

// ObserveClientAPI records one client API call. Safe to call before
// InitCheckoutMetrics.
func ObserveClientAPI(operation string, seconds float64, err error) {
	if Checkout == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Checkout.ClientAPILatency.WithLabelValues(operation, outcome).Observe(seconds)
}
