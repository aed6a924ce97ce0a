package graphqltransportws

import (
	"fmt"

	"github.com/bhoriuchi/graphql-go-client/result"
)

// handleNext delivers a next frame to the data sink. The result size is
// the raw frame byte length.
func (s *Session) handleNext(msg RawMessage, size int) {
	id, err := msg.ID()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	if id != subscriptionID {
		s.violation(msg, fmt.Sprintf("%q message carries unknown subscription id %q", MsgNext, id))
		return
	}

	payload, err := msg.NextPayload()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	s.log.Tracef("received NEXT message")
	s.deliver(result.FromParts(payload.Data, payload.Errors, payload.Extensions, int64(size)))
}
