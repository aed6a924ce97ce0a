package graphqltransportws

// handlePing handles a ping message by replying with a pong echoing the
// ping payload
func (s *Session) handlePing(msg RawMessage) {
	s.log.Tracef("received PING message, replying with PONG")

	var payload interface{}
	if msg.HasPayload() {
		payload = msg.Payload()
	}

	s.send(NewPongMessage(payload))
}
