package httpclient

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	neturl "net/url"

	"github.com/bhoriuchi/graphql-go-client/operation"
)

const defaultRequestTimeout = 10

// Content types
const (
	ContentTypeJSON                = "application/json"
	ContentTypeGraphQLResponseJSON = "application/graphql-response+json"
)

// BeforeFunc modifies the request before it is sent
type BeforeFunc func(req *http.Request) error

// newRequestBody renders the operation as a JSON or multipart form body.
// When documentIDAsQuery is set and the operation carries a document id,
// the id moves from the body to a documentId query parameter on the url.
func newRequestBody(url string, op *operation.Operation, useFormData, documentIDAsQuery bool) (string, io.Reader, string, error) {
	if documentIDAsQuery && op.DocumentID != "" {
		u, err := neturl.Parse(url)
		if err != nil {
			return "", nil, "", err
		}

		q := u.Query()
		q.Set("documentId", op.DocumentID)
		u.RawQuery = q.Encode()

		url = u.String()
		op = op.WithoutDocumentID()
	}

	if useFormData {
		body, contentType, err := formBody(op)
		return url, body, contentType, err
	}

	j, err := json.Marshal(op)
	if err != nil {
		return "", nil, "", err
	}

	return url, bytes.NewBuffer(j), ContentTypeJSON, nil
}

// formBody renders the operation as multipart form fields. Variables and
// extensions are sent as JSON strings.
func formBody(op *operation.Operation) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if op.Query != "" {
		if err := w.WriteField("query", op.Query); err != nil {
			return nil, "", err
		}
	}

	if op.DocumentID != "" {
		if err := w.WriteField("documentId", op.DocumentID); err != nil {
			return nil, "", err
		}
	}

	if op.OperationName != "" {
		if err := w.WriteField("operationName", op.OperationName); err != nil {
			return nil, "", err
		}
	}

	if op.Variables != nil {
		j, err := json.Marshal(op.Variables)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("variables", string(j)); err != nil {
			return nil, "", err
		}
	}

	if op.Extensions != nil {
		j, err := json.Marshal(op.Extensions)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("extensions", string(j)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf, w.FormDataContentType(), nil
}
