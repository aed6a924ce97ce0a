package graphqltransportws

import (
	"encoding/json"
	"time"

	"github.com/graphql-go/graphql/gqlerrors"
)

// MessageType is a message type
type MessageType string

// CloseCode a closing code
type CloseCode int

const (
	// Subprotocol
	Subprotocol = "graphql-transport-ws"

	// Message types
	MsgConnectionInit MessageType = "connection_init"
	MsgConnectionAck  MessageType = "connection_ack"
	MsgPing           MessageType = "ping"
	MsgPong           MessageType = "pong"
	MsgSubscribe      MessageType = "subscribe"
	MsgNext           MessageType = "next"
	MsgError          MessageType = "error"
	MsgComplete       MessageType = "complete"

	// Close codes
	Noop                            CloseCode = -1
	NormalClosure                   CloseCode = 1000
	BadRequest                      CloseCode = 4400
	ConnectionInitialisationTimeout CloseCode = 4408

	// subscriptionID is the fixed operation id. A session carries exactly
	// one logical subscription for its lifetime.
	subscriptionID = "1"

	// Thresholds
	WriteTimeout = 10 * time.Second
)

// CloseReason is the typed cause accompanying every session closure
type CloseReason string

const (
	// ReasonClient the caller aborted the session
	ReasonClient CloseReason = "client"
	// ReasonServer the server completed the subscription gracefully
	ReasonServer CloseReason = "server"
	// ReasonServerError the server sent a protocol-level error frame
	ReasonServerError CloseReason = "server error"
	// ReasonTimeout a timeout policy aborted the session
	ReasonTimeout CloseReason = "timeout"
	// ReasonError a transport failure or protocol violation occurred
	ReasonError CloseReason = "error"
)

// OperationMessage is the wire shape of every frame
type OperationMessage struct {
	ID      string      `json:"id,omitempty"`
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NextPayload is the payload of a next frame
type NextPayload struct {
	Data       interface{}               `json:"data,omitempty"`
	Errors     gqlerrors.FormattedErrors `json:"errors,omitempty"`
	Extensions map[string]interface{}    `json:"extensions,omitempty"`
}

// ReMarshal converts one type to another
func ReMarshal(in, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
