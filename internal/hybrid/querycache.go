package hybrid

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Freshness windows while online. Offline, entries never expire: cached data
// is only replaced by the next successful online read.
const (
	listFreshness  = 30 * time.Second
	statsFreshness = 60 * time.Second
)

// queryCache is the shared response cache keyed by (entity, owner, params).
// Concurrent identical reads share one in-flight load via singleflight.
type queryCache struct {
	mu      sync.Mutex
	entries map[string]*queryEntry
	group   singleflight.Group
}

type queryEntry struct {
	owner     string
	value     any
	fetchedAt time.Time
	stale     bool
}

func newQueryCache() *queryCache {
	return &queryCache{entries: make(map[string]*queryEntry)}
}

func queryKey(entity, owner string, limit int) string {
	return fmt.Sprintf("%s|%s|%d", entity, owner, limit)
}

// lookup returns a usable cached value. Offline suspends the freshness
// window (cached results never auto-expire), but an explicitly invalidated
// entry misses either way: a write must be visible on the next read even
// without connectivity.
func (q *queryCache) lookup(key string, ttl time.Duration, offline bool, now time.Time) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if !offline && now.Sub(e.fetchedAt) >= ttl {
		return nil, false
	}
	return e.value, true
}

func (q *queryCache) put(key, owner string, value any, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries[key] = &queryEntry{owner: owner, value: value, fetchedAt: now}
}

// Invalidate marks every entry belonging to the owner stale.
func (q *queryCache) Invalidate(owner string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.owner == owner {
			e.stale = true
		}
	}
}

// InvalidateAll marks every entry stale, used on reconnect.
func (q *queryCache) InvalidateAll() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		e.stale = true
	}
}

// fetchCached serves a read through the response cache: a fresh entry is
// returned as-is, otherwise load runs once for all concurrent callers of the
// same key and the result is cached.
func fetchCached[T any](s *Service, entity, owner string, limit int, ttl time.Duration, load func() T) T {
	key := queryKey(entity, owner, limit)
	offline := s.net.IsOffline()
	if v, ok := s.queries.lookup(key, ttl, offline, s.now()); ok {
		return v.(T)
	}
	v, _, _ := s.queries.group.Do(key, func() (any, error) {
		value := load()
		s.queries.put(key, owner, value, s.now())
		return value, nil
	})
	return v.(T)
}
