package graphqltransportws

import (
	"fmt"

	"github.com/graphql-go/graphql/gqlerrors"
)

// RawMessage is the raw message data
type RawMessage map[string]interface{}

// stringField extracts a string value from a raw message
func (m RawMessage) stringField(name string) (string, error) {
	rawField, ok := m[name]
	if !ok || rawField == nil {
		return "", fmt.Errorf("message is missing the '%s' property", name)
	}

	strField, ok := rawField.(string)
	if !ok {
		return "", fmt.Errorf("message expects the '%s' property to be a string but got %T", name, rawField)
	}

	if strField == "" {
		return "", fmt.Errorf("message is missing the '%s' property", name)
	}

	return strField, nil
}

// Type validates and extracts the type field value from a raw message
func (m RawMessage) Type() (MessageType, error) {
	str, err := m.stringField("type")
	if err != nil {
		return "", err
	}

	return MessageType(str), nil
}

// ID validates and extracts the id field value from a raw message
func (m RawMessage) ID() (string, error) {
	return m.stringField("id")
}

// HasPayload returns true if the payload field exists and is not null
func (m RawMessage) HasPayload() bool {
	p, ok := m["payload"]
	return ok && p != nil
}

// Payload returns the raw payload
func (m RawMessage) Payload() interface{} {
	return m["payload"]
}

// RecordPayload converts the payload to a record
func (m RawMessage) RecordPayload() (map[string]interface{}, error) {
	payload, ok := m["payload"]
	if !ok || payload == nil {
		return nil, fmt.Errorf("message is missing the 'payload' property")
	}

	r := map[string]interface{}{}
	if err := ReMarshal(payload, &r); err != nil {
		return nil, fmt.Errorf("failed to parse payload")
	}

	return r, nil
}

// NextPayload converts the payload to a next payload
func (m RawMessage) NextPayload() (*NextPayload, error) {
	record, err := m.RecordPayload()
	if err != nil {
		return nil, err
	}

	_, hasData := record["data"]
	_, hasErrors := record["errors"]
	if !hasData && !hasErrors {
		return nil, fmt.Errorf("%q message expects the 'payload' property to contain 'data' or 'errors'", MsgNext)
	}

	p := &NextPayload{}
	if err := ReMarshal(m["payload"], p); err != nil {
		return nil, fmt.Errorf("failed to parse payload")
	}

	return p, nil
}

// ErrorsPayload converts the payload to a list of graphql errors
func (m RawMessage) ErrorsPayload() (gqlerrors.FormattedErrors, error) {
	payload, ok := m["payload"]
	if !ok || payload == nil {
		return nil, fmt.Errorf("message is missing the 'payload' property")
	}

	errs := gqlerrors.FormattedErrors{}
	if err := ReMarshal(payload, &errs); err != nil {
		return nil, fmt.Errorf("%q message expects the 'payload' property to be an array of GraphQL errors", MsgError)
	}

	return errs, nil
}

// NewConnectionInitMessage creates a new connection_init message
func NewConnectionInitMessage(payload interface{}) OperationMessage {
	return OperationMessage{
		Type:    MsgConnectionInit,
		Payload: payload,
	}
}

// NewSubscribeMessage creates a new subscribe message
func NewSubscribeMessage(id string, payload interface{}) OperationMessage {
	return OperationMessage{
		ID:      id,
		Type:    MsgSubscribe,
		Payload: payload,
	}
}

// NewPingMessage creates a new ping message
func NewPingMessage(payload interface{}) OperationMessage {
	return OperationMessage{
		Type:    MsgPing,
		Payload: payload,
	}
}

// NewPongMessage creates a new pong message
func NewPongMessage(payload interface{}) OperationMessage {
	return OperationMessage{
		Type:    MsgPong,
		Payload: payload,
	}
}
