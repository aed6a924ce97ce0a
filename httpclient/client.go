package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bhoriuchi/graphql-go-client/logger"
	"github.com/bhoriuchi/graphql-go-client/operation"
	"github.com/bhoriuchi/graphql-go-client/result"
)

// ErrorFunc is called with the request and response when a request fails
// validation, before the failure is converted to a network-error result
type ErrorFunc func(req *http.Request, rsp *http.Response)

// Options client options
type Options struct {
	URL               string
	Before            []BeforeFunc
	UseFormData       bool
	DocumentIDAsQuery bool
	StrictValidation  bool
	Insecure          bool
	RequestTimeout    time.Duration
	HTTPClient        *http.Client
	Logger            *logger.LogWrapper
	OnError           ErrorFunc
}

// Client executes graphql operations over HTTP
type Client struct {
	url               string
	before            []BeforeFunc
	useFormData       bool
	documentIDAsQuery bool
	strictValidation  bool
	httpClient        *http.Client
	log               *logger.LogWrapper
	onError           ErrorFunc
	pending           int64
}

// NewClient creates a new client
func NewClient(opts *Options) *Client {
	var httpClient *http.Client

	timeout := opts.RequestTimeout
	if timeout == 0 {
		timeout = time.Duration(defaultRequestTimeout) * time.Second
	}

	if opts.HTTPClient != nil {
		httpClient = opts.HTTPClient
	} else {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: opts.Insecure,
				},
			},
		}
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &Client{
		url:               opts.URL,
		before:            opts.Before,
		useFormData:       opts.UseFormData,
		documentIDAsQuery: opts.DocumentIDAsQuery,
		strictValidation:  opts.StrictValidation,
		httpClient:        httpClient,
		log:               log,
		onError:           opts.OnError,
	}
}

// PendingRequests returns the number of requests currently in flight
func (c *Client) PendingRequests() int64 {
	return atomic.LoadInt64(&c.pending)
}

// Call is a single in-flight request attempt
type Call struct {
	done   chan struct{}
	res    *result.Result
	cancel context.CancelFunc
}

// Done is closed when the call has completed
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result blocks until the call completes and returns its result
func (c *Call) Result() *result.Result {
	<-c.done
	return c.res
}

// Abort cancels the in-flight transport call. Aborting a completed call
// is harmless and aborting twice is the same as aborting once.
func (c *Call) Abort() {
	c.cancel()
}

// Do dispatches an operation and returns a handle to the in-flight call.
// It never fails synchronously; every failure mode is reported through the
// call's result as a network-error result.
func (c *Client) Do(ctx context.Context, op *operation.Operation) *Call {
	ctx, cancel := context.WithCancel(ctx)
	call := &Call{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	atomic.AddInt64(&c.pending, 1)

	go func() {
		defer atomic.AddInt64(&c.pending, -1)
		call.res = c.execute(ctx, op)
		close(call.done)
	}()

	return call
}

// execute performs a single request and converts every failure into a
// network-error result
func (c *Client) execute(ctx context.Context, op *operation.Operation) *result.Result {
	url, body, contentType, err := newRequestBody(c.url, op, c.useFormData, c.documentIDAsQuery)
	if err != nil {
		return result.NetworkError("failed to serialize operation", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return result.NetworkError("failed to create request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", ContentTypeGraphQLResponseJSON+", "+ContentTypeJSON)

	// apply before middleware
	for _, before := range c.before {
		if err := before(req); err != nil {
			c.log.WithError(err).Debugf("request transform failed")
			return result.NetworkError("request transform failed", err)
		}
	}

	rsp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Debugf("request failed")
		return result.NetworkError("request failed", err)
	}
	defer rsp.Body.Close()

	return c.validate(req, rsp)
}
