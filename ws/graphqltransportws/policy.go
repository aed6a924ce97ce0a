package graphqltransportws

import "time"

// PolicyConn is the view of a session exposed to a timeout policy
type PolicyConn interface {
	// Ping sends a ping frame with an optional payload
	Ping(payload interface{})
	// Abort closes the session with the given reason
	Abort(reason CloseReason)
}

// TimeoutPolicy receives session lifecycle events and may abort the
// session when it decides liveness has been lost. The engine enforces no
// timeouts itself; an absent policy is equivalent to every hook being a
// no-op.
type TimeoutPolicy interface {
	// OnOpen is called once when the socket has been opened
	OnOpen(conn PolicyConn)
	// OnOutbound is called for every outbound message before it is sent
	OnOutbound(msg OperationMessage)
	// OnInbound is called for every inbound message before dispatch.
	// Returning false means the policy fully consumed the message and
	// default dispatch must be skipped.
	OnInbound(msg RawMessage) bool
	// OnAck is called once when the connection has been acknowledged
	OnAck()
	// OnClose is called once with the reason the session closed
	OnClose(reason CloseReason)
}

// ReconnectionPolicy decides whether a closed session should be re-dialed.
// It is consumed by auto-reconnecting wrappers, not by the session itself.
// The close reason is part of the contract: a policy typically retries
// only transport-level failures and timeouts.
type ReconnectionPolicy interface {
	// ShouldRetry reports whether a session closed for the given reason
	// should be retried after the given number of attempts
	ShouldRetry(reason CloseReason, attempts int) bool
	// NextDelay returns the delay before the next attempt
	NextDelay() time.Duration
	// Reset clears the attempt history after a successful connection
	Reset()
}

// NoopTimeoutPolicy is the absent-policy case
type NoopTimeoutPolicy struct{}

func (NoopTimeoutPolicy) OnOpen(conn PolicyConn)          {}
func (NoopTimeoutPolicy) OnOutbound(msg OperationMessage) {}
func (NoopTimeoutPolicy) OnInbound(msg RawMessage) bool   { return true }
func (NoopTimeoutPolicy) OnAck()                          {}
func (NoopTimeoutPolicy) OnClose(reason CloseReason)      {}
