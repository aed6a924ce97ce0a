package result

import (
	"encoding/json"

	"github.com/graphql-go/graphql/gqlerrors"
)

// Result is the uniform outcome of a single execution attempt, whether it
// came from an HTTP response or a socket frame. A result is always returned
// as a value, never raised as a fault.
type Result struct {
	Data         interface{}               `json:"data,omitempty"`
	Errors       gqlerrors.FormattedErrors `json:"errors,omitempty"`
	Extensions   map[string]interface{}    `json:"extensions,omitempty"`
	NetworkError bool                      `json:"-"`
	Size         int64                     `json:"-"`
}

// HasErrors returns true if errors are present
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// FirstError returns the first error
func (r *Result) FirstError() *gqlerrors.FormattedError {
	if r.HasErrors() {
		first := r.Errors[0]
		return &first
	}
	return nil
}

// Decode decodes the result data into the provided interface
func (r *Result) Decode(out interface{}) error {
	j, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(j, out)
}

// wire shape of a graphql response body or next frame payload
type payload struct {
	Data       interface{}               `json:"data"`
	Errors     gqlerrors.FormattedErrors `json:"errors"`
	Extensions map[string]interface{}    `json:"extensions"`
}

// FromJSON builds a result from a raw graphql response body. Malformed
// JSON becomes a network-error result. Non-empty errors clear the data.
func FromJSON(body []byte, size int64) *Result {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return NetworkError("failed to parse response body", err)
	}

	return FromParts(p.Data, p.Errors, p.Extensions, size)
}

// FromParts builds a result from already-decoded response parts. Non-empty
// errors clear the data.
func FromParts(data interface{}, errs gqlerrors.FormattedErrors, extensions map[string]interface{}, size int64) *Result {
	r := &Result{
		Data:       data,
		Errors:     errs,
		Extensions: extensions,
		Size:       size,
	}

	if r.HasErrors() {
		r.Data = nil
	}

	return r
}

// FromErrors builds an errors-only result, e.g. from a subscription
// error frame
func FromErrors(errs gqlerrors.FormattedErrors, size int64) *Result {
	return &Result{
		Errors: errs,
		Size:   size,
	}
}

// NetworkError builds a network-error result carrying a human-readable
// message. The underlying cause, if any, is recorded under extensions.
func NetworkError(message string, cause error) *Result {
	r := &Result{
		NetworkError: true,
		Errors: gqlerrors.FormattedErrors{
			gqlerrors.NewFormattedError(message),
		},
	}

	if cause != nil {
		r.Extensions = map[string]interface{}{
			"cause": cause.Error(),
		}
	}

	return r
}
