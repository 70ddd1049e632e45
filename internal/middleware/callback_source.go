package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// CallbackSource restricts the callback route to the processor's networks
type CallbackSource struct {
	allowed []*net.IPNet
	proxies *TrustedProxyList
	logger  *zap.Logger
}

// NewCallbackSource creates the allowlist. An empty cidrs list allows every
// source.
func NewCallbackSource(cidrs []string, proxies *TrustedProxyList, logger *zap.Logger) (*CallbackSource, error) {
	allowed, err := parseCIDRs(cidrs)
	if err != nil {
		return nil, err
	}
	logger.Info("Callback source allowlist loaded", zap.Int("count", len(allowed)))
	return &CallbackSource{
		allowed: allowed,
		proxies: proxies,
		logger:  logger,
	}, nil
}

// Middleware answers 403 to callbacks from outside the allowlist
func (c *CallbackSource) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(c.allowed) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := c.proxies.ClientIP(r)
		ip := net.ParseIP(clientIP)
		if ip == nil || !containsIP(c.allowed, ip) {
			c.logger.Warn("Callback from unauthorized source",
				zap.String("ip", clientIP),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
