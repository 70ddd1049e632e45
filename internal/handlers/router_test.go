package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/handlers/payment"
	"github.com/integrationcmi/cmi/internal/middleware"
	paymentsvc "github.com/integrationcmi/cmi/internal/services/payment"
	pkgmw "github.com/integrationcmi/cmi/pkg/middleware"
	"github.com/integrationcmi/cmi/pkg/observability"
	"github.com/integrationcmi/cmi/pkg/resilience"
)

type stubCheckout struct{}

func (stubCheckout) Checkout(ctx context.Context, req *domain.PaymentRequest) (*paymentsvc.CheckoutResult, error) {
	params, err := domain.NewParameterSetFromMap(map[string]string{"oid": "ORD-1", "hash": "abc="})
	if err != nil {
		return nil, err
	}
	return &paymentsvc.CheckoutResult{GatewayURL: "https://testpayment.cmi.co.ma/fim/est3Dgate", Params: params}, nil
}

func (stubCheckout) CheckoutForm(ctx context.Context, req *domain.PaymentRequest) (*paymentsvc.CheckoutForm, error) {
	return &paymentsvc.CheckoutForm{HTML: []byte("<html></html>"), Nonce: "n0nce"}, nil
}

func (stubCheckout) GetAttempt(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	if orderID != "ORD-1" {
		return nil, domain.ErrAttemptNotFound
	}
	return &domain.PaymentAttempt{OrderID: orderID}, nil
}

type approvingVerifier struct{}

func (approvingVerifier) Verify(params *domain.ParameterSet) domain.VerificationResult {
	return domain.ApprovedResult(domain.AckPostAuth, &domain.OrderReference{OrderID: params.Get("oid")})
}

func newTestRouter(t *testing.T, mutate func(*RouterDeps)) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)

	deps := RouterDeps{
		Checkout: payment.NewCheckoutHandler(stubCheckout{}, "https://testpayment.cmi.co.ma/fim/est3Dgate", logger),
		Callback: payment.NewCallbackHandler(approvingVerifier{}, payment.DefaultCallbackOptions(), logger),
		Logger:   logger,
	}
	if mutate != nil {
		mutate(&deps)
	}
	return NewRouter(deps)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"checkout", http.MethodPost, "/api/v1/payments/checkout", `{"amount":"10"}`, http.StatusOK, `"gateway_url"`},
		{"checkout form", http.MethodPost, "/api/v1/payments/checkout/form", `{"amount":"10"}`, http.StatusOK, "<html>"},
		{"attempt", http.MethodGet, "/api/v1/payments/ORD-1", "", http.StatusOK, "ORD-1"},
		{"unknown attempt", http.MethodGet, "/api/v1/payments/ORD-404", "", http.StatusNotFound, ""},
		{"callback", http.MethodPost, "/api/v1/payments/cmi/callback", "oid=ORD-1", http.StatusOK, "ACTION=POSTAUTH"},
		{"callback put", http.MethodPut, "/api/v1/payments/cmi/callback", "", http.StatusMethodNotAllowed, ""},
		{"unknown route", http.MethodGet, "/api/v2/anything", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if strings.Contains(tt.path, "callback") {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouter_CallbackSourceAllowlist(t *testing.T) {
	source, err := middleware.NewCallbackSource([]string{"10.0.0.0/8"}, nil, zap.NewNop())
	require.NoError(t, err)

	router := newTestRouter(t, func(d *RouterDeps) { d.CallbackSource = source })

	form := url.Values{"oid": {"ORD-1"}}.Encode()

	req := httptest.NewRequest(http.MethodPost, CallbackPath, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.10:4000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, CallbackPath, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.1.2.3:4000"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// checkout routes are not restricted
	req = httptest.NewRequest(http.MethodGet, "/api/v1/payments/ORD-1", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CheckoutRateLimit(t *testing.T) {
	limiter := pkgmw.NewRateLimiter(0.001, 1, pkgmw.RemoteAddrKey, zap.NewNop())
	t.Cleanup(limiter.Shutdown)

	router := newTestRouter(t, func(d *RouterDeps) { d.CheckoutLimiter = limiter })

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/v1/payments/ORD-1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/v1/payments/ORD-1"))
	// the callback route has its own limiter
	assert.Equal(t, http.StatusOK, do(CallbackPath+"?oid=ORD-1"))
}

func TestInstrumentHook(t *testing.T) {
	assert.Nil(t, InstrumentHook("success", nil, nil))

	before := testutil.ToFloat64(observability.CallbackHookFailuresTotal.WithLabelValues("success"))

	timeouts := &resilience.TimeoutConfig{CallbackHook: 50 * time.Millisecond}
	var sawDeadline bool
	hook := InstrumentHook("success", timeouts, func(ctx context.Context, result domain.VerificationResult) error {
		_, sawDeadline = ctx.Deadline()
		return errors.New("ledger down")
	})

	err := hook(context.Background(), domain.VerificationResult{})
	assert.EqualError(t, err, "ledger down")
	assert.True(t, sawDeadline)
	assert.Equal(t, before+1, testutil.ToFloat64(observability.CallbackHookFailuresTotal.WithLabelValues("success")))

	ok := InstrumentHook("success", timeouts, func(ctx context.Context, result domain.VerificationResult) error { return nil })
	require.NoError(t, ok(context.Background(), domain.VerificationResult{}))
	assert.Equal(t, before+1, testutil.ToFloat64(observability.CallbackHookFailuresTotal.WithLabelValues("success")))
}
