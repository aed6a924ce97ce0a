package policy

import (
	"time"

	"github.com/bhoriuchi/graphql-go-client/utils/backoff"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
)

// Reconnect is a reconnection policy with jittered exponential delays.
// Only transport failures and timeouts are retried; client aborts and
// server completions are final.
type Reconnect struct {
	// MaxAttempts caps retries; zero means unlimited
	MaxAttempts int

	backoff *backoff.Backoff
}

// NewReconnect creates a reconnection policy over the given backoff
// options
func NewReconnect(opts *backoff.Options, maxAttempts int) *Reconnect {
	return &Reconnect{
		MaxAttempts: maxAttempts,
		backoff:     backoff.NewBackoff(opts),
	}
}

// ShouldRetry reports whether a session closed for the given reason should
// be re-dialed
func (r *Reconnect) ShouldRetry(reason graphqltransportws.CloseReason, attempts int) bool {
	if r.MaxAttempts > 0 && attempts >= r.MaxAttempts {
		return false
	}

	switch reason {
	case graphqltransportws.ReasonError, graphqltransportws.ReasonTimeout:
		return true
	}

	return false
}

// NextDelay returns the delay before the next attempt
func (r *Reconnect) NextDelay() time.Duration {
	return r.backoff.Duration()
}

// Reset clears the attempt history after a successful connection
func (r *Reconnect) Reset() {
	r.backoff.Reset()
}
