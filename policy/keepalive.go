// Package policy provides default timeout and reconnection policy
// implementations for subscription sessions. The session itself enforces
// no liveness rules; installing one of these is entirely optional.
package policy

import (
	"sync"
	"time"

	"github.com/bhoriuchi/graphql-go-client/utils/interval"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
)

const (
	defaultKeepAliveInterval = 30 * time.Second
	defaultKeepAliveTimeout  = 60 * time.Second
)

// KeepAlive is a timeout policy that pings the server on a fixed interval
// once the connection has been acknowledged and aborts the session with a
// timeout when no traffic arrives within the deadline. Pong frames are
// consumed by the policy.
type KeepAlive struct {
	// Interval between pings
	Interval time.Duration
	// Timeout is the maximum silence tolerated before aborting
	Timeout time.Duration

	mx       sync.Mutex
	conn     graphqltransportws.PolicyConn
	ticker   *interval.Interval
	lastSeen time.Time
}

// OnOpen records the session handle and starts the silence clock
func (k *KeepAlive) OnOpen(conn graphqltransportws.PolicyConn) {
	k.mx.Lock()
	defer k.mx.Unlock()
	k.conn = conn
	k.lastSeen = time.Now()
}

// OnOutbound is a no-op; outbound traffic says nothing about the server
func (k *KeepAlive) OnOutbound(msg graphqltransportws.OperationMessage) {}

// OnInbound resets the silence clock. Pongs are fully consumed so they
// never reach default dispatch.
func (k *KeepAlive) OnInbound(msg graphqltransportws.RawMessage) bool {
	k.mx.Lock()
	k.lastSeen = time.Now()
	k.mx.Unlock()

	msgType, err := msg.Type()
	if err != nil {
		return true
	}

	return msgType != graphqltransportws.MsgPong
}

// OnAck starts the ping loop
func (k *KeepAlive) OnAck() {
	every := k.Interval
	if every <= 0 {
		every = defaultKeepAliveInterval
	}

	deadline := k.Timeout
	if deadline <= 0 {
		deadline = defaultKeepAliveTimeout
	}

	k.mx.Lock()
	defer k.mx.Unlock()

	conn := k.conn
	if conn == nil || k.ticker != nil {
		return
	}

	k.ticker = interval.SetInterval(func(i *interval.Interval) {
		k.mx.Lock()
		silence := time.Since(k.lastSeen)
		k.mx.Unlock()

		if silence > deadline {
			i.Clear()
			conn.Abort(graphqltransportws.ReasonTimeout)
			return
		}

		conn.Ping(nil)
	}, every)
}

// OnClose stops the ping loop
func (k *KeepAlive) OnClose(reason graphqltransportws.CloseReason) {
	k.mx.Lock()
	defer k.mx.Unlock()

	if k.ticker != nil {
		k.ticker.Clear()
		k.ticker = nil
	}
}
