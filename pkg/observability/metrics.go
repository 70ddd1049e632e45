package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cmi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cmi_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cmi_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// RegisterAll registers every service metric on reg
func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		PaymentRequestsSignedTotal, PaymentAmountTotal,
		CallbacksTotal, CallbackVerificationDuration,
		CallbackHookFailuresTotal, CallbackDuplicatesTotal,
		LedgerErrorsTotal,
	)
}
