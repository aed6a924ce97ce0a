package graphqltransportws

import (
	"fmt"

	"github.com/bhoriuchi/graphql-go-client/result"
)

// handleError delivers an errors-only result to the data sink and closes
// the session
func (s *Session) handleError(msg RawMessage, size int) {
	id, err := msg.ID()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	if id != subscriptionID {
		s.violation(msg, fmt.Sprintf("%q message carries unknown subscription id %q", MsgError, id))
		return
	}

	errs, err := msg.ErrorsPayload()
	if err != nil {
		s.violation(msg, err.Error())
		return
	}

	s.log.Debugf("received ERROR message")
	s.deliver(result.FromErrors(errs, int64(size)))
	s.Abort(ReasonServerError)
}
