package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Checkout signing
	PaymentRequestsSignedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmi_payment_requests_signed_total",
		Help: "Total checkout requests handed to the signer",
	}, []string{
		"status", // signed, invalid, error
	})

	PaymentAmountTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmi_payment_amount_total",
		Help: "Sum of amounts in trusted callbacks, in major currency units",
	}, []string{
		"status", // verified_approved, verified_failed
		"currency",
	})

	// Callback verification
	CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmi_callbacks_total",
		Help: "Total callbacks verified",
	}, []string{
		"status",   // verified_approved, verified_failed, rejected
		"reason",   // reject reason, empty unless rejected
		"category", // processor return code category
	})

	CallbackVerificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "cmi_callback_verification_duration_seconds",
		Help: "Time to verify one callback digest",
		// Buckets: 10µs to 50ms
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})

	CallbackHookFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmi_callback_hook_failures_total",
		Help: "Total callback hooks that returned an error",
	}, []string{
		"hook", // success, failure
	})

	CallbackDuplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cmi_callback_duplicates_total",
		Help: "Callbacks whose hooks were skipped as redeliveries",
	})

	// Payment ledger
	LedgerErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmi_ledger_errors_total",
		Help: "Total payment ledger write failures",
	}, []string{
		"operation", // create_pending, record_result, record_callback
	})
)

// RecordSignedRequest records the outcome of one signing attempt
func RecordSignedRequest(status string) {
	PaymentRequestsSignedTotal.WithLabelValues(status).Inc()
}

// RecordCallback records one verified callback. amount is only counted for
// trusted callbacks.
func RecordCallback(status, reason, category, currency string, amount float64, duration time.Duration) {
	CallbacksTotal.WithLabelValues(status, reason, category).Inc()
	CallbackVerificationDuration.Observe(duration.Seconds())
	if currency != "" && amount >= 0 {
		PaymentAmountTotal.WithLabelValues(status, currency).Add(amount)
	}
}

// RecordHookFailure records a hook error
func RecordHookFailure(hook string) {
	CallbackHookFailuresTotal.WithLabelValues(hook).Inc()
}

// RecordDuplicateCallback records a redelivered callback
func RecordDuplicateCallback() {
	CallbackDuplicatesTotal.Inc()
}

// RecordLedgerError records a failed ledger write
func RecordLedgerError(operation string) {
	LedgerErrorsTotal.WithLabelValues(operation).Inc()
}
