package policy

import (
	"sync"
	"testing"
	"time"

	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mx      sync.Mutex
	pings   int
	reasons []graphqltransportws.CloseReason
}

func (c *fakeConn) Ping(payload interface{}) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.pings++
}

func (c *fakeConn) Abort(reason graphqltransportws.CloseReason) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.reasons = append(c.reasons, reason)
}

func (c *fakeConn) pingCount() int {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.pings
}

func (c *fakeConn) abortedWith() []graphqltransportws.CloseReason {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]graphqltransportws.CloseReason{}, c.reasons...)
}

func TestKeepAlivePingsUntilTimeout(t *testing.T) {
	conn := &fakeConn{}
	k := &KeepAlive{Interval: 5 * time.Millisecond, Timeout: 40 * time.Millisecond}

	k.OnOpen(conn)
	k.OnAck()
	defer k.OnClose(graphqltransportws.ReasonClient)

	require.Eventually(t, func() bool {
		return len(conn.abortedWith()) > 0
	}, time.Second, time.Millisecond, "sustained silence must abort the session")

	require.Equal(t, []graphqltransportws.CloseReason{graphqltransportws.ReasonTimeout}, conn.abortedWith())
	require.Greater(t, conn.pingCount(), 0, "pings are sent while waiting out the deadline")
}

func TestKeepAliveInboundTrafficDefersTimeout(t *testing.T) {
	conn := &fakeConn{}
	k := &KeepAlive{Interval: 5 * time.Millisecond, Timeout: 200 * time.Millisecond}

	k.OnOpen(conn)
	k.OnAck()
	defer k.OnClose(graphqltransportws.ReasonClient)

	// feed traffic well past the deadline; it must never fire
	for i := 0; i < 40; i++ {
		k.OnInbound(graphqltransportws.RawMessage{"type": "pong"})
		time.Sleep(10 * time.Millisecond)
	}

	require.Empty(t, conn.abortedWith(), "a live connection is never timed out")
}

func TestKeepAliveConsumesPongsOnly(t *testing.T) {
	k := &KeepAlive{}

	require.False(t, k.OnInbound(graphqltransportws.RawMessage{"type": "pong"}), "pongs are consumed by the policy")
	require.True(t, k.OnInbound(graphqltransportws.RawMessage{"type": "next", "id": "1"}))
	require.True(t, k.OnInbound(graphqltransportws.RawMessage{}), "malformed frames pass through to dispatch")
}

func TestKeepAliveOnCloseStopsPinging(t *testing.T) {
	conn := &fakeConn{}
	k := &KeepAlive{Interval: 5 * time.Millisecond, Timeout: time.Hour}

	k.OnOpen(conn)
	k.OnAck()

	require.Eventually(t, func() bool {
		return conn.pingCount() > 0
	}, time.Second, time.Millisecond)

	k.OnClose(graphqltransportws.ReasonClient)

	// let any in-flight handler drain before sampling
	time.Sleep(20 * time.Millisecond)
	settled := conn.pingCount()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, conn.pingCount(), "no pings after close")
}
