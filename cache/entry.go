package cache

import (
	"time"

	"github.com/bhoriuchi/graphql-go-client/result"
)

// Call is a single in-flight request attempt started by a FetchFunc
type Call interface {
	Done() <-chan struct{}
	Result() *result.Result
	Abort()
}

// FetchFunc starts one request attempt. It must not block; the returned
// call reports completion through its Done channel.
type FetchFunc func() Call

// Subscriber receives every committed result for an entry. A nil result
// marks an explicit cleared transition.
type Subscriber func(res *result.Result)

type subscription struct {
	fn Subscriber
}

// Attempt is a single refresh attempt. Concurrent refreshes of a loading
// entry share the same attempt.
type Attempt struct {
	done chan struct{}
	res  *result.Result
}

// Done is closed when the attempt has completed
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Result blocks until the attempt completes and returns its result
func (a *Attempt) Result() *result.Result {
	<-a.done
	return a.res
}

// resolve publishes the attempt result to waiters. Commit and subscriber
// notification happen before resolution so that a resolved attempt
// implies a settled entry.
func (a *Attempt) resolve(res *result.Result) {
	a.res = res
	close(a.done)
}

// Entry is a cache entry and its live response cell. All field mutation
// happens under the owning store's mutex.
type Entry struct {
	store        *Store
	key          string
	size         int64
	expires      time.Time // zero value is always in the past
	lastUsed     time.Time
	subscribers  []*subscription
	cancel       func()
	res          *result.Result
	loading      bool
	inflight     *Attempt
	fetch        FetchFunc
	cacheTimeout time.Duration
	noCache      bool
}

// NewEntry wires a new entry for use with Store.GetOrCreate. In no-cache
// mode the entry never receives a non-zero expiry.
func NewEntry(s *Store, key string, fetch FetchFunc, cacheTimeout time.Duration, noCache bool) *Entry {
	return &Entry{
		store:        s,
		key:          key,
		size:         entryOverhead,
		lastUsed:     s.now(),
		fetch:        fetch,
		cacheTimeout: cacheTimeout,
		noCache:      noCache,
	}
}

// Key returns the entry's cache key
func (e *Entry) Key() string {
	return e.key
}

// Result returns the last committed result
func (e *Entry) Result() *result.Result {
	e.store.mx.Lock()
	defer e.store.mx.Unlock()
	return e.res
}

// Loading returns true while a fetch is in flight
func (e *Entry) Loading() bool {
	e.store.mx.Lock()
	defer e.store.mx.Unlock()
	return e.loading
}

// Expired returns true if the entry's expiry is in the past
func (e *Entry) Expired() bool {
	e.store.mx.Lock()
	defer e.store.mx.Unlock()
	return !e.expires.After(e.store.now())
}

// Subscribers returns the number of active subscribers
func (e *Entry) Subscribers() int {
	e.store.mx.Lock()
	defer e.store.mx.Unlock()
	return len(e.subscribers)
}

// Refresh fetches the entry's operation. If a fetch is already in flight
// the existing attempt is returned unchanged, so concurrent refreshes
// trigger exactly one transport call.
func (e *Entry) Refresh() *Attempt {
	e.store.mx.Lock()

	if e.loading {
		a := e.inflight
		e.store.mx.Unlock()
		return a
	}

	a := &Attempt{done: make(chan struct{})}
	e.loading = true
	e.inflight = a

	call := e.fetch()
	e.cancel = call.Abort
	e.store.mx.Unlock()

	go func() {
		<-call.Done()
		e.complete(a, call.Result())
	}()

	return a
}

// complete commits a finished attempt. A completion superseded by a newer
// attempt is dropped rather than applied; the attempt itself still
// resolves for any waiters.
func (e *Entry) complete(a *Attempt, res *result.Result) {
	e.store.mx.Lock()

	if e.inflight != a {
		e.store.mx.Unlock()
		a.resolve(res)
		return
	}

	e.res = res
	e.loading = false
	e.inflight = nil
	e.cancel = nil

	if res.HasErrors() {
		// force immediate expiry so the errored result is not reused
		e.expires = time.Time{}
	} else {
		// an entry evicted while this fetch was in flight is still held by
		// its callers; commit its result but keep it out of the byte budget
		if e.store.entries[e.key] == e {
			e.store.setSizeLocked(e, res.Size+entryOverhead)
		}
		if !e.noCache {
			e.expires = e.store.now().Add(e.cacheTimeout)
		}
	}

	subs := e.snapshotLocked()
	e.store.mx.Unlock()

	for _, fn := range subs {
		fn(res)
	}

	a.resolve(res)
}

// ForceRefresh cancels any in-flight fetch without notifying subscribers
// and starts a new one
func (e *Entry) ForceRefresh() *Attempt {
	e.store.mx.Lock()

	if e.loading {
		cancel := e.cancel
		e.loading = false
		e.inflight = nil
		e.cancel = nil
		e.store.mx.Unlock()

		if cancel != nil {
			cancel()
		}
	} else {
		e.store.mx.Unlock()
	}

	return e.Refresh()
}

// ClearAndRefresh discards the previous result, notifying subscribers with
// nil so they observe a cleared transition before the new result arrives,
// then force-refreshes
func (e *Entry) ClearAndRefresh() *Attempt {
	e.store.mx.Lock()
	hadResult := e.res != nil
	e.res = nil
	subs := e.snapshotLocked()
	e.store.mx.Unlock()

	if hadResult {
		for _, fn := range subs {
			fn(nil)
		}
	}

	return e.ForceRefresh()
}

// Subscribe appends a callback to the subscriber list and returns a func
// that removes exactly that callback. An entry with subscribers is exempt
// from expiry-driven removal and eviction.
func (e *Entry) Subscribe(fn Subscriber) func() {
	sub := &subscription{fn: fn}

	e.store.mx.Lock()
	e.subscribers = append(e.subscribers, sub)
	e.lastUsed = e.store.now()
	e.store.mx.Unlock()

	return func() {
		e.store.mx.Lock()
		defer e.store.mx.Unlock()

		for i, s := range e.subscribers {
			if s == sub {
				e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (e *Entry) snapshotLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s.fn)
	}
	return subs
}
