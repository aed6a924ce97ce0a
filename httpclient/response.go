package httpclient

import (
	"io"
	"mime"
	"net/http"

	"github.com/bhoriuchi/graphql-go-client/result"
)

// validate checks the response status and content type and parses the body
// into a result. By default any 2xx or 4xx response is parsed as JSON. With
// strict validation a 2xx response must carry a graphql-response+json or
// json content type and a 4xx response must carry graphql-response+json.
// Everything else becomes a network-error result carrying the status text
// without reading the body.
func (c *Client) validate(req *http.Request, rsp *http.Response) *result.Result {
	ok2xx := rsp.StatusCode >= 200 && rsp.StatusCode < 300
	ok4xx := rsp.StatusCode >= 400 && rsp.StatusCode < 500

	if !ok2xx && !ok4xx {
		return c.requestError(req, rsp)
	}

	if c.strictValidation {
		contentType, _, err := mime.ParseMediaType(rsp.Header.Get("Content-Type"))
		if err != nil {
			return c.requestError(req, rsp)
		}

		if ok2xx && contentType != ContentTypeGraphQLResponseJSON && contentType != ContentTypeJSON {
			return c.requestError(req, rsp)
		}

		if ok4xx && contentType != ContentTypeGraphQLResponseJSON {
			return c.requestError(req, rsp)
		}
	}

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		c.log.WithError(err).Debugf("failed to read response body")
		return result.NetworkError("failed to read response body", err)
	}

	size := int64(len(body))
	if rsp.ContentLength >= 0 {
		size = rsp.ContentLength
	}

	return result.FromJSON(body, size)
}

// requestError reports an invalid response through the error hook and
// converts it to a network-error result
func (c *Client) requestError(req *http.Request, rsp *http.Response) *result.Result {
	if c.onError != nil {
		c.onError(req, rsp)
	}

	statusText := http.StatusText(rsp.StatusCode)
	c.log.
		WithField("status", rsp.StatusCode).
		WithField("contentType", rsp.Header.Get("Content-Type")).
		Debugf("unexpected response: %s", statusText)

	return result.NetworkError(statusText, nil)
}
