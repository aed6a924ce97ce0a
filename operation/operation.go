package operation

import (
	"encoding/json"
	"fmt"
)

// Operation is a single GraphQL request. The document is opaque to the
// client; it is either an inline query string or a server-known document id.
// An operation is immutable once submitted.
type Operation struct {
	Query         string                 `json:"query,omitempty"`
	DocumentID    string                 `json:"documentId,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
	Extensions    map[string]interface{} `json:"extensions,omitempty"`
}

// Key returns the stable serialized form of the operation used to address
// cache entries. encoding/json sorts map keys, so operations with identical
// fields always produce identical keys.
func (o *Operation) Key() string {
	j, err := json.Marshal(o)
	if err != nil {
		// maps with non-string-representable values cannot be sent anyway
		return fmt.Sprintf("%+v", *o)
	}
	return string(j)
}

// WithoutDocumentID returns a copy of the operation with the document id
// cleared, used when the id is sent as a query parameter instead of in
// the body
func (o *Operation) WithoutDocumentID() *Operation {
	clone := *o
	clone.DocumentID = ""
	return &clone
}
