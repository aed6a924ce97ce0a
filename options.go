package client

import (
	"net/http"
	"time"

	"github.com/bhoriuchi/graphql-go-client/httpclient"
	"github.com/bhoriuchi/graphql-go-client/logger"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
	"github.com/gorilla/websocket"
)

type Option func(opts *clientOptions)

type clientOptions struct {
	Config             *Config
	Logger             *logger.LogWrapper
	HTTPClient         *http.Client
	Dialer             *websocket.Dialer
	Before             []httpclient.BeforeFunc
	OnHTTPError        httpclient.ErrorFunc
	OnSocketError      graphqltransportws.ErrorFunc
	ConnectionPayload  graphqltransportws.PayloadFunc
	TimeoutPolicy      graphqltransportws.TimeoutPolicy
	ReconnectionPolicy graphqltransportws.ReconnectionPolicy
}

// WithConfig replaces the whole config
func WithConfig(cfg *Config) Option {
	return func(opts *clientOptions) {
		if cfg != nil {
			opts.Config = cfg
		}
	}
}

// WithURL sets the graphql HTTP endpoint
func WithURL(url string) Option {
	return func(opts *clientOptions) {
		opts.Config.URL = url
	}
}

// WithWSURL sets the socket endpoint
func WithWSURL(url string) Option {
	return func(opts *clientOptions) {
		opts.Config.WSURL = url
	}
}

// WithFetchMode sets the default fetch mode for queries
func WithFetchMode(mode FetchMode) Option {
	return func(opts *clientOptions) {
		opts.Config.FetchMode = mode
	}
}

// WithCacheTimeout sets the cache entry lifetime
func WithCacheTimeout(timeout time.Duration) Option {
	return func(opts *clientOptions) {
		opts.Config.CacheTimeout = timeout
	}
}

// WithMaxCacheSize sets the cache byte budget
func WithMaxCacheSize(bytes int64) Option {
	return func(opts *clientOptions) {
		opts.Config.MaxCacheSize = bytes
	}
}

// WithStrictValidation enforces graphql-over-http content types
func WithStrictValidation() Option {
	return func(opts *clientOptions) {
		opts.Config.StrictValidation = true
	}
}

// WithFormData sends operations as multipart form fields
func WithFormData() Option {
	return func(opts *clientOptions) {
		opts.Config.UseFormData = true
	}
}

// WithDocumentIDAsQuery sends document ids as a query parameter
func WithDocumentIDAsQuery() Option {
	return func(opts *clientOptions) {
		opts.Config.DocumentIDAsQuery = true
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.LogWrapper) Option {
	return func(opts *clientOptions) {
		opts.Logger = l
	}
}

// WithHTTPClient injects the http client used for queries
func WithHTTPClient(c *http.Client) Option {
	return func(opts *clientOptions) {
		opts.HTTPClient = c
	}
}

// WithDialer injects the websocket dialer used for subscriptions
func WithDialer(d *websocket.Dialer) Option {
	return func(opts *clientOptions) {
		opts.Dialer = d
	}
}

// WithBefore appends request transform middleware applied before dispatch
func WithBefore(before ...httpclient.BeforeFunc) Option {
	return func(opts *clientOptions) {
		opts.Before = append(opts.Before, before...)
	}
}

// WithHTTPErrorFunc sets the hook called with failing requests and their
// responses
func WithHTTPErrorFunc(f httpclient.ErrorFunc) Option {
	return func(opts *clientOptions) {
		opts.OnHTTPError = f
	}
}

// WithSocketErrorFunc sets the hook called with socket protocol violations
// and unexpected closures
func WithSocketErrorFunc(f graphqltransportws.ErrorFunc) Option {
	return func(opts *clientOptions) {
		opts.OnSocketError = f
	}
}

// WithConnectionPayload sets the generator for connection_init payloads
func WithConnectionPayload(f graphqltransportws.PayloadFunc) Option {
	return func(opts *clientOptions) {
		opts.ConnectionPayload = f
	}
}

// WithTimeoutPolicy sets the default subscription timeout policy
func WithTimeoutPolicy(p graphqltransportws.TimeoutPolicy) Option {
	return func(opts *clientOptions) {
		opts.TimeoutPolicy = p
	}
}

// WithReconnectionPolicy sets the default subscription reconnection policy
func WithReconnectionPolicy(p graphqltransportws.ReconnectionPolicy) Option {
	return func(opts *clientOptions) {
		opts.ReconnectionPolicy = p
	}
}
