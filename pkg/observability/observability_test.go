package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger("nonsense", true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
	assert.True(t, logger.Core().Enabled(0))
}

func TestRecordCallback(t *testing.T) {
	before := testutil.ToFloat64(CallbacksTotal.WithLabelValues("verified_approved", "", "approved"))
	amountBefore := testutil.ToFloat64(PaymentAmountTotal.WithLabelValues("verified_approved", "504"))

	RecordCallback("verified_approved", "", "approved", "504", 100, time.Millisecond)
	RecordCallback("rejected", "tampering suspected", "", "", 0, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(CallbacksTotal.WithLabelValues("verified_approved", "", "approved")))
	assert.Equal(t, amountBefore+100, testutil.ToFloat64(PaymentAmountTotal.WithLabelValues("verified_approved", "504")))
}

func TestRecordSignedRequest(t *testing.T) {
	before := testutil.ToFloat64(PaymentRequestsSignedTotal.WithLabelValues("invalid"))
	RecordSignedRequest("invalid")
	assert.Equal(t, before+1, testutil.ToFloat64(PaymentRequestsSignedTotal.WithLabelValues("invalid")))
}

func TestRegisterAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterAll(reg) })
	assert.Panics(t, func() { RegisterAll(reg) }, "double registration must fail loudly")
}

func TestMetricsServerRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterAll(reg)
	RecordHookFailure("success")

	srv := NewMetricsServer(":0", reg, NewHealthChecker(nil, nil))

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cmi_callback_hook_failures_total")

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "not configured", status.Checks["database"])
	assert.Equal(t, "not configured", status.Checks["redis"])

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, "ready", rec.Body.String())
}
