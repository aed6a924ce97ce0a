package graphqltransportws

import "fmt"

// handleComplete closes the session after a graceful server completion
func (s *Session) handleComplete(msg RawMessage) {
	id, err := msg.ID()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	if id != subscriptionID {
		s.violation(msg, fmt.Sprintf("%q message carries unknown subscription id %q", MsgComplete, id))
		return
	}

	s.log.Debugf("received COMPLETE message")
	s.Abort(ReasonServer)
}
