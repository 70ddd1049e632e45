package resilience

import (
	"context"
	"time"
)

// TimeoutConfig bounds the stages of a request. A callback must be
// acknowledged within CallbackHook or the processor treats it as undelivered.
//
//	HTTP Handler (30s)
//	  ↓
//	Callback hook (10s: Redis claim + ledger write)
//	  ↓
//	Database Query (ledger QueryTimeout)
type TimeoutConfig struct {
	HTTPHandler    time.Duration
	CallbackHook   time.Duration
	DependencyPing time.Duration // one startup ping to Postgres or Redis
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler:    30 * time.Second,
		CallbackHook:   10 * time.Second,
		DependencyPing: 3 * time.Second,
	}
}

// CallbackHookContext creates a context with timeout for one callback hook
func (tc *TimeoutConfig) CallbackHookContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.CallbackHook)
}

// DependencyPingContext creates a context with timeout for a startup ping
func (tc *TimeoutConfig) DependencyPingContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.DependencyPing)
}
