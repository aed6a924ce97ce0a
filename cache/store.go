package cache

import (
	"sync"
	"time"

	"github.com/bhoriuchi/graphql-go-client/logger"
)

// entryOverhead is the fixed per-entry bookkeeping cost added to the
// result size when accounting an entry against the byte budget
const entryOverhead = 256

// Factory wires a new entry for a key. The store registers the entry and
// triggers its first refresh.
type Factory func(s *Store, key string) *Entry

// Store is the in-memory response cache. It is unbounded in entry count
// but bounded in aggregate byte size. A single mutex guards the entry
// table, the size total, and every entry's cell state; subscriber
// callbacks always run outside of it.
type Store struct {
	mx      sync.Mutex
	entries map[string]*Entry
	size    int64
	maxSize int64
	log     *logger.LogWrapper
	now     func() time.Time
}

// NewStore creates a new store with the given byte budget
func NewStore(maxSize int64, log *logger.LogWrapper) *Store {
	if log == nil {
		log = logger.NewNoopLogger()
	}

	return &Store{
		entries: map[string]*Entry{},
		maxSize: maxSize,
		log:     log,
		now:     time.Now,
	}
}

// Size returns the current aggregate byte size
func (s *Store) Size() int64 {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.size
}

// MaxSize returns the configured byte budget
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return len(s.entries)
}

// Has returns true if an entry exists for the key
func (s *Store) Has(key string) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	_, ok := s.entries[key]
	return ok
}

// GetOrCreate looks up the entry for a key, creating it via the factory on
// a miss. A hit refreshes the entry's recency. In no-cache mode an idle hit
// is evicted and replaced with a fresh entry; an in-use hit is reused. A
// newly created entry immediately triggers its first refresh.
func (s *Store) GetOrCreate(key string, factory Factory, noCache bool) *Entry {
	s.mx.Lock()

	if e, ok := s.entries[key]; ok {
		if !noCache || len(e.subscribers) > 0 {
			e.lastUsed = s.now()
			s.mx.Unlock()
			return e
		}

		// no-cache mode never reuses an idle entry
		s.removeLocked(e)
	}

	e := factory(s, key)
	s.entries[key] = e
	s.allocateLocked(e.size, e)
	s.size += e.size
	s.mx.Unlock()

	s.log.WithField("key", key).Tracef("created cache entry")
	e.Refresh()
	return e
}

// SetSize commits a new byte size for an entry, re-running eviction
// accounting first so that growing an entry can evict other idle entries
func (s *Store) SetSize(e *Entry, bytes int64) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.setSizeLocked(e, bytes)
}

func (s *Store) setSizeLocked(e *Entry, bytes int64) {
	s.size -= e.size
	e.size = 0
	s.allocateLocked(bytes, e)
	e.size = bytes
	s.size += bytes
}

// Allocate makes room for the given number of bytes, evicting idle entries
// as needed. The exclude entry, if any, is never evicted.
func (s *Store) Allocate(bytes int64, exclude *Entry) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.allocateLocked(bytes, exclude)
}

// allocateLocked implements the eviction algorithm: when over budget, drop
// every expired idle entry first, then repeatedly evict the least recently
// used idle entry. Entries with subscribers are never evicted, so staying
// over budget is tolerated when nothing else is evictable.
func (s *Store) allocateLocked(bytes int64, exclude *Entry) {
	overflow := s.size + bytes - s.maxSize
	if overflow <= 0 {
		return
	}

	now := s.now()

	for _, e := range s.entries {
		if e == exclude || len(e.subscribers) > 0 {
			continue
		}
		if !e.expires.After(now) {
			s.removeLocked(e)
		}
	}

	for s.size+bytes > s.maxSize {
		var victim *Entry
		for _, e := range s.entries {
			if e == exclude || len(e.subscribers) > 0 {
				continue
			}
			if victim == nil || e.lastUsed.Before(victim.lastUsed) {
				victim = e
			}
		}

		if victim == nil {
			break
		}

		s.removeLocked(victim)
	}
}

// removeLocked evicts an entry, deducting its size and aborting any
// in-flight fetch
func (s *Store) removeLocked(e *Entry) {
	delete(s.entries, e.key)
	s.size -= e.size

	cancel := e.cancel
	e.loading = false
	e.inflight = nil
	e.cancel = nil

	if cancel != nil {
		cancel()
	}

	s.log.WithField("key", e.key).Tracef("evicted cache entry")
}

// Clear expires every entry and purges everything eligible. Entries with
// active subscribers survive and keep serving cached data.
func (s *Store) Clear() {
	s.mx.Lock()
	for _, e := range s.entries {
		e.expires = time.Time{}
	}
	s.allocateLocked(s.maxSize, nil)
	s.mx.Unlock()
}

// RefetchAll clears the store, then refetches every surviving entry with
// subscribers. With force, in-flight fetches are cancelled and restarted.
func (s *Store) RefetchAll(force bool) {
	s.Clear()

	for _, e := range s.inUse() {
		if force {
			e.ForceRefresh()
		} else {
			e.Refresh()
		}
	}
}

// Reset clears the store, then clears and refetches every surviving entry
// with subscribers so consumers observe an explicit cleared transition
func (s *Store) Reset() {
	s.Clear()

	for _, e := range s.inUse() {
		e.ClearAndRefresh()
	}
}

// inUse snapshots the entries with active subscribers
func (s *Store) inUse() []*Entry {
	s.mx.Lock()
	defer s.mx.Unlock()

	entries := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if len(e.subscribers) > 0 {
			entries = append(entries, e)
		}
	}

	return entries
}
