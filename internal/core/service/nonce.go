package service

import (
	"container/heap"
	"sync"
	"time"
)

// NonceStore is the replay gate: it remembers (tenant, nonce) pairs for a
// fixed TTL after their first successful use.
//
// State lives in process memory only. A restart forgets every nonce, so a
// token replayed across a restart within its freshness window is accepted
// again.
type NonceStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	seen       map[nonceKey]*nonceEntry
	expiry     expiryHeap
}

type nonceKey struct {
	tenantID string
	nonce    string
}

type nonceEntry struct {
	key       nonceKey
	expiresAt time.Time
	index     int
}

// NonceStoreOption configures a NonceStore.
type NonceStoreOption func(*NonceStore)

// WithMaxEntries bounds the number of live entries. When full, the entry
// closest to expiry is evicted to make room. Zero means unbounded.
func WithMaxEntries(n int) NonceStoreOption {
	return func(s *NonceStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewNonceStore creates a store whose entries live for ttl.
func NewNonceStore(ttl time.Duration, opts ...NonceStoreOption) *NonceStore {
	s := &NonceStore{
		ttl:  ttl,
		seen: make(map[nonceKey]*nonceEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured entry lifetime.
func (s *NonceStore) TTL() time.Duration { return s.ttl }

// CheckAndMark reports whether (tenantID, nonce) is fresh at now and, if so,
// records it until now+TTL. A replay returns false and leaves the store
// untouched apart from purging expired entries.
//
// The purge, lookup and insert run under one lock, so concurrent callers for
// the same pair observe exactly one true.
func (s *NonceStore) CheckAndMark(tenantID, nonce string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)

	key := nonceKey{tenantID: tenantID, nonce: nonce}
	if _, ok := s.seen[key]; ok {
		return false
	}

	if s.maxEntries > 0 {
		for len(s.seen) >= s.maxEntries {
			oldest := heap.Pop(&s.expiry).(*nonceEntry)
			delete(s.seen, oldest.key)
		}
	}

	e := &nonceEntry{key: key, expiresAt: now.Add(s.ttl)}
	heap.Push(&s.expiry, e)
	s.seen[key] = e
	return true
}

// Len returns the number of live entries, including ones that have expired
// but not yet been purged.
func (s *NonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// purgeLocked drops every entry whose expiry is at or before now.
func (s *NonceStore) purgeLocked(now time.Time) {
	for s.expiry.Len() > 0 && !s.expiry[0].expiresAt.After(now) {
		e := heap.Pop(&s.expiry).(*nonceEntry)
		delete(s.seen, e.key)
	}
}

// expiryHeap is a min-heap of entries ordered by expiry.
type expiryHeap []*nonceEntry

func (h expiryHeap) Len() int           { return len(h) }
func (h expiryHeap) Less(i, j int) bool { return h[i].expiresAt.Before(h[j].expiresAt) }

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	e := x.(*nonceEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
