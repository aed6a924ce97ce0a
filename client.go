// Package client implements a graphql client engine with an in-memory
// response cache for request/response operations over HTTP and long-lived
// subscriptions over graphql-transport-ws sockets.
package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bhoriuchi/graphql-go-client/cache"
	"github.com/bhoriuchi/graphql-go-client/httpclient"
	"github.com/bhoriuchi/graphql-go-client/logger"
	"github.com/bhoriuchi/graphql-go-client/operation"
	"github.com/bhoriuchi/graphql-go-client/result"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
	"github.com/gorilla/websocket"
)

// Client is the engine instance. It owns the query executor, the response
// cache and the per-instance counters; there is no global state.
type Client struct {
	config             *Config
	log                *logger.LogWrapper
	http               *httpclient.Client
	store              *cache.Store
	dialer             *websocket.Dialer
	connectionPayload  graphqltransportws.PayloadFunc
	timeoutPolicy      graphqltransportws.TimeoutPolicy
	reconnectionPolicy graphqltransportws.ReconnectionPolicy
	onSocketError      graphqltransportws.ErrorFunc
	subscriptions      int64
}

// NewClient creates a new client
func NewClient(opts ...Option) (*Client, error) {
	options := &clientOptions{
		Config: &Config{},
	}

	for _, opt := range opts {
		opt(options)
	}

	options.Config.setDefaults()

	log := options.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	httpClient := httpclient.NewClient(&httpclient.Options{
		URL:               options.Config.URL,
		Before:            options.Before,
		UseFormData:       options.Config.UseFormData,
		DocumentIDAsQuery: options.Config.DocumentIDAsQuery,
		StrictValidation:  options.Config.StrictValidation,
		HTTPClient:        options.HTTPClient,
		Logger:            log,
		OnError:           options.OnHTTPError,
	})

	return &Client{
		config:             options.Config,
		log:                log,
		http:               httpClient,
		store:              cache.NewStore(options.Config.MaxCacheSize, log),
		dialer:             options.Dialer,
		connectionPayload:  options.ConnectionPayload,
		timeoutPolicy:      options.TimeoutPolicy,
		reconnectionPolicy: options.ReconnectionPolicy,
		onSocketError:      options.OnSocketError,
	}, nil
}

// QueryOption overrides query behavior for a single call
type QueryOption func(opts *queryOptions)

type queryOptions struct {
	mode FetchMode
}

// WithMode overrides the fetch mode for a single query
func WithMode(mode FetchMode) QueryOption {
	return func(opts *queryOptions) {
		opts.mode = mode
	}
}

// Query resolves the cache entry for an operation, creating it and
// triggering its first fetch on a miss. The entry's cell exposes the
// cached result, refresh operations and result subscriptions.
func (c *Client) Query(ctx context.Context, op *operation.Operation, opts ...QueryOption) *cache.Entry {
	qopts := &queryOptions{mode: c.config.FetchMode}
	for _, opt := range opts {
		opt(qopts)
	}

	noCache := qopts.mode == FetchModeNoCache
	created := false

	factory := func(s *cache.Store, key string) *cache.Entry {
		created = true
		return cache.NewEntry(s, key, c.fetchFunc(ctx, op), c.config.CacheTimeout, noCache)
	}

	entry := c.store.GetOrCreate(op.Key(), factory, noCache)
	if created {
		return entry
	}

	switch qopts.mode {
	case FetchModeCacheAndNetwork, FetchModeNoCache:
		entry.Refresh()
	case FetchModeCacheFirst:
		if entry.Expired() {
			entry.Refresh()
		}
	}

	return entry
}

// fetchFunc binds an operation to the query executor for use by its cache
// entry. Refreshes triggered later reuse the context the entry was
// created with.
func (c *Client) fetchFunc(ctx context.Context, op *operation.Operation) cache.FetchFunc {
	return func() cache.Call {
		return c.http.Do(ctx, op)
	}
}

// Mutate executes an operation without touching the cache and blocks until
// its result is available
func (c *Client) Mutate(ctx context.Context, op *operation.Operation) *result.Result {
	return c.http.Do(ctx, op).Result()
}

// SubscribeHandlers receive subscription session events
type SubscribeHandlers struct {
	// OnData receives every result delivered by the session
	OnData graphqltransportws.DataFunc
	// OnOpen is called once when the connection is acknowledged
	OnOpen func()
	// OnClose is called exactly once with the closure reason
	OnClose graphqltransportws.CloseFunc
}

// Subscribe opens a subscription session for an operation. The session
// streams results directly to the handlers and bypasses the cache.
func (c *Client) Subscribe(ctx context.Context, op *operation.Operation, handlers SubscribeHandlers) (*graphqltransportws.Session, error) {
	atomic.AddInt64(&c.subscriptions, 1)

	var once sync.Once
	release := func() {
		once.Do(func() {
			atomic.AddInt64(&c.subscriptions, -1)
		})
	}

	session, err := graphqltransportws.NewSession(ctx, graphqltransportws.Config{
		URL:               c.config.WSURL,
		Operation:         op,
		Logger:            c.log,
		Dialer:            c.dialer,
		ConnectionPayload: c.connectionPayload,
		TimeoutPolicy:     c.timeoutPolicy,
		OnData:            handlers.OnData,
		OnOpen:            handlers.OnOpen,
		OnClose: func(reason graphqltransportws.CloseReason) {
			release()
			if handlers.OnClose != nil {
				handlers.OnClose(reason)
			}
		},
		OnError: c.onSocketError,
	})

	if err != nil {
		release()
		return nil, err
	}

	return session, nil
}

// ClearCache expires every cache entry and purges everything idle. Entries
// with active subscribers keep serving cached data.
func (c *Client) ClearCache() {
	c.store.Clear()
}

// Refetch clears the cache and refetches every entry with subscribers.
// With force, in-flight fetches are cancelled and restarted.
func (c *Client) Refetch(force bool) {
	c.store.RefetchAll(force)
}

// ResetCache clears the cache, then clears and refetches every entry with
// subscribers so consumers observe an explicit cleared transition
func (c *Client) ResetCache() {
	c.store.Reset()
}

// Cache returns the underlying store
func (c *Client) Cache() *cache.Store {
	return c.store
}

// PendingRequests returns the number of HTTP requests currently in flight
func (c *Client) PendingRequests() int64 {
	return c.http.PendingRequests()
}

// ActiveSubscriptions returns the number of open subscription sessions
func (c *Client) ActiveSubscriptions() int64 {
	return atomic.LoadInt64(&c.subscriptions)
}

// ReconnectionPolicy returns the configured reconnection policy for use by
// auto-reconnecting wrappers
func (c *Client) ReconnectionPolicy() graphqltransportws.ReconnectionPolicy {
	return c.reconnectionPolicy
}
