package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/handlers/payment"
	"github.com/integrationcmi/cmi/internal/middleware"
	pkgmw "github.com/integrationcmi/cmi/pkg/middleware"
	"github.com/integrationcmi/cmi/pkg/observability"
	"github.com/integrationcmi/cmi/pkg/resilience"
)

// CallbackPath is where the processor posts payment callbacks
const CallbackPath = "/api/v1/payments/cmi/callback"

// RouterDeps collects everything the HTTP router mounts
type RouterDeps struct {
	Checkout *payment.CheckoutHandler
	Callback *payment.CallbackHandler

	// CallbackSource is optional; nil accepts callbacks from any address
	CallbackSource *middleware.CallbackSource

	// Limiters are optional
	CheckoutLimiter *pkgmw.RateLimiter
	CallbackLimiter *pkgmw.RateLimiter

	Timeouts      *resilience.TimeoutConfig
	IsDevelopment bool
	Logger        *zap.Logger
}

// NewRouter builds the public HTTP API
func NewRouter(deps RouterDeps) http.Handler {
	timeouts := deps.Timeouts
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.NewSecurityHeaders(deps.IsDevelopment).Middleware)
	r.Use(chimw.Timeout(timeouts.HTTPHandler))

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.CheckoutLimiter != nil {
				r.Use(deps.CheckoutLimiter.Middleware)
			}
			r.Post("/checkout", deps.Checkout.Checkout)
			r.Post("/checkout/form", deps.Checkout.CheckoutForm)
			r.Get("/{oid}", deps.Checkout.GetAttempt)
		})

		r.Group(func(r chi.Router) {
			if deps.CallbackSource != nil {
				r.Use(deps.CallbackSource.Middleware)
			}
			if deps.CallbackLimiter != nil {
				r.Use(deps.CallbackLimiter.Middleware)
			}
			// the handler answers unsupported methods with 405
			r.Handle("/cmi/callback", deps.Callback)
		})
	})

	return r
}

// InstrumentHook bounds a callback hook by the hook timeout and counts its failures
func InstrumentHook(name string, timeouts *resilience.TimeoutConfig, hook payment.CallbackHook) payment.CallbackHook {
	if hook == nil {
		return nil
	}
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return func(ctx context.Context, result domain.VerificationResult) error {
		ctx, cancel := timeouts.CallbackHookContext(ctx)
		defer cancel()

		if err := hook(ctx, result); err != nil {
			observability.RecordHookFailure(name)
			return err
		}
		return nil
	}
}
