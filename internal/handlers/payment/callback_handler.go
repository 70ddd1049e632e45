package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/integrationcmi/cmi/internal/adapters/ports"
	"github.com/integrationcmi/cmi/internal/domain"
)

// maxCallbackBodyBytes bounds the callback form or JSON body
const maxCallbackBodyBytes = 64 << 10

// CallbackHook runs after verification and before the response is written
type CallbackHook func(ctx context.Context, result domain.VerificationResult) error

// CallbackOptions configures CallbackHandler
type CallbackOptions struct {
	// AutoRespond writes the acknowledgement token. When false the result is
	// stored in the request context and the next handler answers.
	AutoRespond bool

	// SuccessResponse replaces the token sent for an approved callback
	SuccessResponse string

	// FailureResponse is sent for every other callback
	FailureResponse string

	OnSuccess CallbackHook
	OnFailure CallbackHook

	// SupportGetMethod accepts callbacks carried in the query string
	SupportGetMethod bool
}

// DefaultCallbackOptions auto-responds and accepts GET and POST
func DefaultCallbackOptions() CallbackOptions {
	return CallbackOptions{
		AutoRespond:      true,
		FailureResponse:  string(domain.AckFailure),
		SupportGetMethod: true,
	}
}

type resultContextKey struct{}

// ResultFromContext returns the verification result stored by a
// non-auto-responding CallbackHandler
func ResultFromContext(ctx context.Context) (domain.VerificationResult, bool) {
	result, ok := ctx.Value(resultContextKey{}).(domain.VerificationResult)
	return result, ok
}

// CallbackHandler receives processor callbacks, verifies them and answers
// with the acknowledgement token
type CallbackHandler struct {
	verifier ports.CallbackVerifier
	options  CallbackOptions
	logger   *zap.Logger
}

// NewCallbackHandler creates a callback handler. An empty FailureResponse
// falls back to FAILURE.
func NewCallbackHandler(verifier ports.CallbackVerifier, options CallbackOptions, logger *zap.Logger) *CallbackHandler {
	if options.FailureResponse == "" {
		options.FailureResponse = string(domain.AckFailure)
	}
	return &CallbackHandler{
		verifier: verifier,
		options:  options,
		logger:   logger,
	}
}

// Handle verifies params and runs the matching hook
func (h *CallbackHandler) Handle(ctx context.Context, params *domain.ParameterSet) (domain.VerificationResult, error) {
	result := h.verifier.Verify(params)

	hook, name := h.options.OnFailure, "failure"
	if result.Success() {
		hook, name = h.options.OnSuccess, "success"
	}
	if hook == nil {
		return result, nil
	}
	if err := hook(ctx, result); err != nil {
		return result, fmt.Errorf("%s hook: %w", name, err)
	}
	return result, nil
}

// Response returns the status and body acknowledging result
func (h *CallbackHandler) Response(result domain.VerificationResult) (int, string) {
	if result.Success() {
		if h.options.SuccessResponse != "" {
			return http.StatusOK, h.options.SuccessResponse
		}
		return http.StatusOK, string(result.Token)
	}
	return http.StatusOK, h.options.FailureResponse
}

// ServeHTTP handles the callback endpoint on its own
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, nil)
}

// Middleware verifies the callback before next. With AutoRespond next is
// never reached.
func (h *CallbackHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, next)
	})
}

func (h *CallbackHandler) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if r.Method != http.MethodPost && !(r.Method == http.MethodGet && h.options.SupportGetMethod) {
		h.logger.Warn("Callback received with unsupported method",
			zap.String("method", r.Method),
		)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var result domain.VerificationResult
	var err error

	params, perr := h.extractParams(w, r)
	if perr != nil {
		h.logger.Warn("Malformed callback payload", zap.Error(perr))
		result = domain.RejectedResult(domain.RejectVerificationError, perr)
		if h.options.OnFailure != nil {
			if herr := h.options.OnFailure(r.Context(), result); herr != nil {
				err = fmt.Errorf("failure hook: %w", herr)
			}
		}
	} else {
		result, err = h.Handle(r.Context(), params)
	}

	fields := []zap.Field{
		zap.String("status", string(result.Status)),
		zap.String("method", r.Method),
	}
	if result.Order != nil {
		fields = append(fields, zap.String("oid", result.Order.OrderID))
	}
	if result.Rejected() {
		fields = append(fields, zap.String("reason", string(result.RejectReason)))
	}
	h.logger.Info("Callback processed", fields...)

	if err != nil {
		h.logger.Error("Callback hook failed", append(fields, zap.Error(err))...)
		writeText(w, http.StatusInternalServerError, string(domain.AckFailure))
		return
	}

	if !h.options.AutoRespond && next != nil {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resultContextKey{}, result)))
		return
	}

	status, body := h.Response(result)
	writeText(w, status, body)
}

// extractParams reads the query string for GET, and a form or JSON body for POST
func (h *CallbackHandler) extractParams(w http.ResponseWriter, r *http.Request) (*domain.ParameterSet, error) {
	if r.Method == http.MethodGet {
		return domain.NewParameterSetFromValues(r.URL.Query())
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		params := domain.NewParameterSet()
		if err := json.NewDecoder(r.Body).Decode(params); err != nil {
			if errors.Is(err, io.EOF) {
				return params, nil
			}
			return nil, err
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return domain.NewParameterSetFromValues(r.PostForm)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
