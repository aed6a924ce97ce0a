package httpclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bhoriuchi/graphql-go-client/httpclient"
	"github.com/bhoriuchi/graphql-go-client/operation"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts *httpclient.Options) *httpclient.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	if opts == nil {
		opts = &httpclient.Options{}
	}
	opts.URL = srv.URL

	return httpclient.NewClient(opts)
}

func TestDoSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var op operation.Operation
		require.NoError(t, json.Unmarshal(body, &op))
		require.Equal(t, `query { x }`, op.Query)

		w.Header().Set("Content-Type", "application/json")
		// 16 bytes of JSON padded to a content length of 20
		w.Write([]byte(`{"data":{"x":1}}    `))
	}, nil)

	res := c.Do(context.Background(), &operation.Operation{Query: `query { x }`}).Result()

	require.False(t, res.NetworkError)
	require.False(t, res.HasErrors())
	require.Equal(t, map[string]interface{}{"x": float64(1)}, res.Data)
	require.Equal(t, int64(20), res.Size)
	require.Eventually(t, func() bool { return c.PendingRequests() == 0 }, time.Second, time.Millisecond)
}

func TestDoServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	res := c.Do(context.Background(), &operation.Operation{Query: `query { x }`}).Result()

	require.True(t, res.NetworkError)
	require.Equal(t, "Internal Server Error", res.FirstError().Message)
	require.Nil(t, res.Data)
}

func TestDo4xxParsed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"message":"syntax error"}]}`))
	}, nil)

	res := c.Do(context.Background(), &operation.Operation{Query: `query {`}).Result()

	require.False(t, res.NetworkError, "a 4xx graphql response is not a network error")
	require.True(t, res.HasErrors())
	require.Equal(t, "syntax error", res.FirstError().Message)
}

func TestDoStrictValidation(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		wantNetwork bool
	}{
		{"2xx graphql-response+json", http.StatusOK, "application/graphql-response+json", false},
		{"2xx json", http.StatusOK, "application/json; charset=utf-8", false},
		{"2xx text/plain", http.StatusOK, "text/plain", true},
		{"4xx graphql-response+json", http.StatusBadRequest, "application/graphql-response+json", false},
		{"4xx json", http.StatusBadRequest, "application/json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hookCalled bool

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"data":null,"errors":[{"message":"nope"}]}`))
			}, &httpclient.Options{
				StrictValidation: true,
				OnError: func(req *http.Request, rsp *http.Response) {
					hookCalled = true
				},
			})

			res := c.Do(context.Background(), &operation.Operation{Query: `query { x }`}).Result()
			require.Equal(t, tt.wantNetwork, res.NetworkError)
			require.Equal(t, tt.wantNetwork, hookCalled, "error hook must fire exactly on invalid responses")
		})
	}
}

func TestDoBeforeFuncFailure(t *testing.T) {
	called := false

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, &httpclient.Options{
		Before: []httpclient.BeforeFunc{
			func(req *http.Request) error {
				return errors.New("no credentials")
			},
		},
	})

	res := c.Do(context.Background(), &operation.Operation{Query: `query { x }`}).Result()

	require.True(t, res.NetworkError)
	require.Equal(t, "request transform failed", res.FirstError().Message)
	require.Equal(t, "no credentials", res.Extensions["cause"])
	require.False(t, called, "the request must not be dispatched")
	require.Eventually(t, func() bool { return c.PendingRequests() == 0 }, time.Second, time.Millisecond)
}

func TestDoBeforeFuncAppliesHeaders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"ok":true}}`))
	}, &httpclient.Options{
		Before: []httpclient.BeforeFunc{
			func(req *http.Request) error {
				req.Header.Set("Authorization", "Bearer token-1")
				return nil
			},
		},
	})

	res := c.Do(context.Background(), &operation.Operation{Query: `query { ok }`}).Result()
	require.False(t, res.NetworkError)
}

func TestDoAbort(t *testing.T) {
	release := make(chan struct{})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, nil)
	defer close(release)

	call := c.Do(context.Background(), &operation.Operation{Query: `query { x }`})
	call.Abort()

	res := call.Result()
	require.True(t, res.NetworkError)

	// aborting again after completion is harmless
	call.Abort()
	require.Eventually(t, func() bool { return c.PendingRequests() == 0 }, time.Second, time.Millisecond)
}

func TestNewClientDoesNotMutateOptions(t *testing.T) {
	opts := &httpclient.Options{URL: "http://localhost/graphql"}
	httpclient.NewClient(opts)
	require.Zero(t, opts.RequestTimeout, "defaults stay out of caller-owned options")
}

func TestDoFormData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, `query Widget($id: ID!) { widget(id: $id) { name } }`, r.FormValue("query"))
		require.Equal(t, "Widget", r.FormValue("operationName"))
		require.JSONEq(t, `{"id":"w1"}`, r.FormValue("variables"))
		w.Write([]byte(`{"data":{"widget":{"name":"sprocket"}}}`))
	}, &httpclient.Options{UseFormData: true})

	res := c.Do(context.Background(), &operation.Operation{
		Query:         `query Widget($id: ID!) { widget(id: $id) { name } }`,
		OperationName: "Widget",
		Variables:     map[string]interface{}{"id": "w1"},
	}).Result()

	require.False(t, res.NetworkError)
	require.False(t, res.HasErrors())
}

func TestDoDocumentIDAsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "doc-1", r.URL.Query().Get("documentId"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NotContains(t, string(body), "documentId", "document id must be removed from the body")

		w.Write([]byte(`{"data":{"ok":true}}`))
	}, &httpclient.Options{DocumentIDAsQuery: true})

	res := c.Do(context.Background(), &operation.Operation{
		DocumentID: "doc-1",
		Variables:  map[string]interface{}{"id": "w1"},
	}).Result()

	require.False(t, res.NetworkError)
}
