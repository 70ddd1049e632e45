package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/domain"
	"github.com/integrationcmi/cmi/internal/services/payment"
	"github.com/integrationcmi/cmi/pkg/encoding"
)

const maxCheckoutBodyBytes = 64 << 10

// CheckoutService is the service surface the checkout endpoints need
type CheckoutService interface {
	Checkout(ctx context.Context, req *domain.PaymentRequest) (*payment.CheckoutResult, error)
	CheckoutForm(ctx context.Context, req *domain.PaymentRequest) (*payment.CheckoutForm, error)
	GetAttempt(ctx context.Context, orderID string) (*domain.PaymentAttempt, error)
}

// ErrorResponse is the JSON error body of the checkout API
type ErrorResponse struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// CheckoutHandler serves the merchant-facing checkout endpoints
type CheckoutHandler struct {
	service       CheckoutService
	gatewayOrigin string
	logger        *zap.Logger
}

// NewCheckoutHandler creates a checkout handler. gatewayURL is the only
// form-action the rendered page may post to.
func NewCheckoutHandler(service CheckoutService, gatewayURL string, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service:       service,
		gatewayOrigin: originOf(gatewayURL),
		logger:        logger,
	}
}

// Checkout signs a payment request.
// Endpoint: POST /api/v1/payments/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Checkout signed",
		zap.String("oid", result.Params.Get(domain.FieldOrderID)),
	)
	writeJSON(w, http.StatusOK, result)
}

// CheckoutForm signs a payment request and returns the auto-submit page.
// Endpoint: POST /api/v1/payments/checkout/form
func (h *CheckoutHandler) CheckoutForm(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	page, err := h.service.CheckoutForm(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Security-Policy", fmt.Sprintf(
		"default-src 'none'; script-src 'nonce-%s'; form-action %s; base-uri 'none'; frame-ancestors 'none'",
		page.Nonce, h.gatewayOrigin,
	))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(page.HTML); err != nil {
		h.logger.Error("Failed to write payment form", zap.Error(err))
	}
}

// GetAttempt returns the ledger state of one order.
// Endpoint: GET /api/v1/payments/{oid}
func (h *CheckoutHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), chi.URLParam(r, "oid"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *CheckoutHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*domain.PaymentRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCheckoutBodyBytes)

	var req domain.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if domain.IsValidationError(err) {
			h.writeError(w, err)
			return nil, false
		}
		h.logger.Warn("Invalid checkout body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    string(domain.ErrorCodeValidationFailed),
			Message: "request body must be a JSON object",
		})
		return nil, false
	}
	return &req, true
}

func (h *CheckoutHandler) writeError(w http.ResponseWriter, err error) {
	var derr *domain.DomainError
	switch {
	case domain.IsValidationError(err) && errors.As(err, &derr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    string(derr.Code),
			Field:   derr.Field,
			Message: derr.Message,
		})
	case domain.IsNotFoundError(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    string(domain.ErrorCodeAttemptNotFound),
			Message: "payment attempt not found",
		})
	default:
		h.logger.Error("Checkout failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(domain.ErrorCodeInternalError),
			Message: "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := encoding.EncodeJSON(body)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// originOf reduces a URL to scheme://host for CSP source lists
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "'none'"
	}
	return u.Scheme + "://" + u.Host
}
