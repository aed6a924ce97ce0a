package graphqltransportws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bhoriuchi/graphql-go-client/logger"
	"github.com/bhoriuchi/graphql-go-client/operation"
	"github.com/bhoriuchi/graphql-go-client/result"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is the session state
type State int

const (
	// StateOpening the socket is open and the handshake is in progress
	StateOpening State = iota
	// StateConnected the connection has been acknowledged and the
	// subscription is live
	StateConnected
	// StateClosed terminal state
	StateClosed
)

// DataFunc receives every result delivered by the session
type DataFunc func(res *result.Result)

// CloseFunc is called exactly once with the reason the session closed
type CloseFunc func(reason CloseReason)

// ErrorFunc is called with the operation, the connection init payload and
// the received frame or transport error when the session encounters a
// protocol violation or an unexpected closure
type ErrorFunc func(op *operation.Operation, initPayload interface{}, event interface{})

// PayloadFunc produces the connection_init payload
type PayloadFunc func(ctx context.Context) (interface{}, error)

// Config defines the configuration parameters of a subscription session
type Config struct {
	URL               string
	Operation         *operation.Operation
	Logger            *logger.LogWrapper
	Dialer            *websocket.Dialer
	ConnectionPayload PayloadFunc
	TimeoutPolicy     TimeoutPolicy
	OnData            DataFunc
	OnOpen            func()
	OnClose           CloseFunc
	OnError           ErrorFunc
}

// Session is one long-lived subscription over its own socket. It owns the
// socket for its lifetime and implements the client side of the
// graphql-transport-ws protocol.
type Session struct {
	id          string
	ws          *websocket.Conn
	config      Config
	log         *logger.LogWrapper
	policy      TimeoutPolicy
	outgoing    chan OperationMessage
	done        chan struct{}
	connected   chan struct{}
	initPayload interface{}
	mx          sync.Mutex
	state       State
	aborted     bool
	closeCode   CloseCode
}

// NewSession dials the socket and starts the handshake. Dial failures are
// returned synchronously; every later failure mode is reported through the
// data sink and the close callback.
func NewSession(ctx context.Context, config Config) (*Session, error) {
	id := uuid.NewString()

	log := config.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}
	log = log.
		WithField("sessionId", id).
		WithField("subprotocol", Subprotocol)

	policy := config.TimeoutPolicy
	if policy == nil {
		policy = NoopTimeoutPolicy{}
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: WriteTimeout}
	}

	// dial with a copy so the caller's dialer is not mutated
	d := *dialer
	d.Subprotocols = []string{Subprotocol}

	ws, rsp, err := d.DialContext(ctx, config.URL, nil)
	if err != nil {
		if rsp != nil {
			rsp.Body.Close()
		}
		log.WithError(err).Errorf("failed to dial socket")
		return nil, fmt.Errorf("failed to dial %s: %w", config.URL, err)
	}

	s := &Session{
		id:        id,
		ws:        ws,
		config:    config,
		log:       log,
		policy:    policy,
		outgoing:  make(chan OperationMessage),
		done:      make(chan struct{}),
		connected: make(chan struct{}),
		state:     StateOpening,
		closeCode: Noop,
	}

	go s.writeLoop()
	go s.readLoop()

	s.policy.OnOpen(s)
	go s.init(ctx)

	return s, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state
func (s *Session) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// Aborted returns true once the session has closed
func (s *Session) Aborted() bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.aborted
}

// Connected is closed when the connection has been acknowledged
func (s *Session) Connected() <-chan struct{} {
	return s.connected
}

// Done is closed when the session has closed
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Ping sends a ping frame. Part of the PolicyConn contract.
func (s *Session) Ping(payload interface{}) {
	s.send(NewPingMessage(payload))
}

// Abort closes the session with the given reason. The first call wins;
// calling Abort on a closed session is a no-op.
func (s *Session) Abort(reason CloseReason) {
	s.abort(reason, true)
}

// abort performs the one-time transition into the closed state. When the
// low-level socket is already gone, closeSocket is false and no close
// frame is written.
func (s *Session) abort(reason CloseReason, closeSocket bool) {
	s.mx.Lock()
	if s.aborted {
		s.mx.Unlock()
		return
	}

	s.aborted = true
	s.state = StateClosed

	if closeSocket {
		s.closeCode = NormalClosure
		if reason == ReasonTimeout {
			s.closeCode = ConnectionInitialisationTimeout
		}
	}
	s.mx.Unlock()

	close(s.done)

	s.policy.OnClose(reason)

	if s.config.OnClose != nil {
		s.config.OnClose(reason)
	}

	s.log.WithField("reason", reason).Debugf("closed subscription session")
}

// init generates the connection payload and sends connection_init. A
// failing payload hook delivers a diagnostic result to the data sink and
// closes the session.
func (s *Session) init(ctx context.Context) {
	var payload interface{}

	if s.config.ConnectionPayload != nil {
		p, err := s.config.ConnectionPayload(ctx)
		if err != nil {
			s.log.WithError(err).Errorf("connection payload hook failed")
			s.deliver(result.NetworkError("failed to generate connection payload", err))
			s.Abort(ReasonError)
			return
		}
		payload = p
	}

	s.mx.Lock()
	s.initPayload = payload
	s.mx.Unlock()

	s.log.Tracef("sending CONNECTION_INIT message")
	s.send(NewConnectionInitMessage(payload))
}

// send routes a message through the timeout policy and the write loop
func (s *Session) send(msg OperationMessage) {
	s.policy.OnOutbound(msg)

	select {
	case s.outgoing <- msg:
	case <-s.done:
	}
}

// deliver passes a result to the data sink unless the session has closed
func (s *Session) deliver(res *result.Result) {
	if s.Aborted() || s.config.OnData == nil {
		return
	}

	s.config.OnData(res)
}

func (s *Session) writeLoop() {
	// Close the socket when leaving the write loop; this ensures the read
	// loop is also terminated and the connection closed cleanly
	defer s.ws.Close()

	for {
		select {
		case <-s.done:
			s.mx.Lock()
			code := s.closeCode
			s.mx.Unlock()

			if code != Noop {
				msg := websocket.FormatCloseMessage(int(code), "")
				s.ws.SetWriteDeadline(time.Now().Add(WriteTimeout))
				s.ws.WriteMessage(websocket.CloseMessage, msg)
			}
			return

		case msg := <-s.outgoing:
			s.ws.SetWriteDeadline(time.Now().Add(WriteTimeout))

			// if this times out the socket is corrupt, so leave the write
			// loop and close the connection immediately
			if err := s.ws.WriteJSON(msg); err != nil {
				s.log.WithError(err).Warnf("sending message failed")
				return
			}
		}
	}
}

func (s *Session) readLoop() {
	// Close the socket when leaving the read loop
	defer s.ws.Close()

	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			// a locally aborted session closes its own socket; anything
			// else is an unexpected closure
			if !s.Aborted() {
				s.log.WithError(err).Errorf("unexpected socket closure")
				s.socketError(err)
				s.deliver(result.NetworkError("unexpected socket closure", err))
				s.abort(ReasonError, false)
			}
			return
		}

		msg := RawMessage{}
		if err := json.Unmarshal(data, &msg); err != nil {
			s.violation(string(data), fmt.Sprintf("invalid message received: %s", err))
			return
		}

		s.dispatch(msg, len(data))
	}
}

// dispatch routes a single inbound message according to the session state
func (s *Session) dispatch(msg RawMessage, size int) {
	// the timeout policy sees every inbound message first and may
	// consume it entirely
	if !s.policy.OnInbound(msg) {
		return
	}

	msgType, err := msg.Type()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	// ping is answered in any state without a state transition
	if msgType == MsgPing {
		s.handlePing(msg)
		return
	}

	// pongs are keep-alive replies, nothing to do
	if msgType == MsgPong {
		s.log.Tracef("received PONG message")
		return
	}

	switch s.State() {
	case StateOpening:
		if msgType != MsgConnectionAck {
			s.violation(msg, fmt.Sprintf("expected %q message while opening but received %q", MsgConnectionAck, msgType))
			return
		}
		s.handleAck()

	case StateConnected:
		switch msgType {
		case MsgNext:
			s.handleNext(msg, size)
		case MsgError:
			s.handleError(msg, size)
		case MsgComplete:
			s.handleComplete(msg)
		case MsgConnectionAck:
			s.log.Tracef("ignoring repeated CONNECTION_ACK message")
		default:
			s.violation(msg, fmt.Sprintf("unexpected message of type %q received", msgType))
		}

	case StateClosed:
	}
}

// violation reports a protocol violation through the error hook and the
// data sink, then closes the session. The event is the offending frame,
// parsed when possible and raw otherwise.
func (s *Session) violation(event interface{}, reason string) {
	s.log.WithField("reason", reason).Errorf("subscription protocol violation")
	s.socketError(event)
	s.deliver(result.NetworkError(reason, nil))
	s.Abort(ReasonError)
}

// socketError invokes the socket error hook
func (s *Session) socketError(event interface{}) {
	if s.config.OnError == nil {
		return
	}

	s.mx.Lock()
	initPayload := s.initPayload
	s.mx.Unlock()

	s.config.OnError(s.config.Operation, initPayload, event)
}
