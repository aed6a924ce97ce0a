package graphqltransportws

// handleAck transitions the session into the connected state and sends the
// subscribe message carrying the operation under the fixed subscription id
func (s *Session) handleAck() {
	s.mx.Lock()
	if s.state != StateOpening {
		s.mx.Unlock()
		return
	}
	s.state = StateConnected
	s.mx.Unlock()

	s.log.Debugf("connection acknowledged")
	close(s.connected)

	if s.config.OnOpen != nil {
		s.config.OnOpen()
	}

	s.policy.OnAck()
	s.send(NewSubscribeMessage(subscriptionID, s.config.Operation))
}
