// Package cache holds the read-through snapshot cache of the decision service and the
// Redis bus that spreads invalidations across instances.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	hits = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_cache_hits_total",
		Help: "Snapshot cache hits by cache name.",
	}, []string{"cache"})

	misses = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_cache_misses_total",
		Help: "Snapshot cache misses by cache name.",
	}, []string{"cache"})

	invalidations = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "permission_cache_invalidations_total",
		Help: "Explicit snapshot cache invalidations by cache name.",
	}, []string{"cache"})
)

// Loader produces the value for a missing key.
type Loader[V any] func(ctx context.Context) (V, error)

// Store is an expiring LRU in front of a loader. Concurrent misses for one key share a
// single load. A value loaded while an invalidation happened is returned to its callers
// but not cached. Cached values are shared and must not be mutated.
type Store[V any] struct {
	name  string
	lru   *expirable.LRU[string, V]
	group singleflight.Group

	mu  sync.Mutex // guards gen and pairs it with the lru write
	gen uint64
}

// New returns a Store holding at most size entries for at most ttl each.
func New[V any](name string, size int, ttl time.Duration) *Store[V] {
	return &Store[V]{
		name: name,
		lru:  expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the cached value for key or loads it. A nil Store always loads.
func (s *Store[V]) Get(ctx context.Context, key string, load Loader[V]) (V, error) {
	if s == nil {
		return load(ctx)
	}

	if v, ok := s.lru.Get(key); ok {
		hits.WithLabelValues(s.name).Inc()

		return v, nil
	}

	misses.WithLabelValues(s.name).Inc()

	gen := s.generation()

	ch := s.group.DoChan(key, func() (any, error) {
		// the load outlives a caller that gives up, others may still wait on it
		v, err := load(context.WithoutCancel(ctx))
		if err == nil {
			s.addIfCurrent(key, v, gen)
		}

		return v, err
	})

	select {
	case <-ctx.Done():
		var zero V

		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V

			return zero, res.Err
		}

		return res.Val.(V), nil //nolint:forcetypeassert
	}
}

// Invalidate drops key and detaches any load in flight for it.
func (s *Store[V]) Invalidate(key string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	s.gen++
	s.lru.Remove(key)
	s.mu.Unlock()

	s.group.Forget(key)
	invalidations.WithLabelValues(s.name).Inc()
}

// Purge drops every entry.
func (s *Store[V]) Purge() {
	if s == nil {
		return
	}

	s.mu.Lock()
	s.gen++
	s.lru.Purge()
	s.mu.Unlock()

	invalidations.WithLabelValues(s.name).Inc()
}

func (s *Store[V]) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// addIfCurrent caches v unless an invalidation happened since gen was read.
func (s *Store[V]) addIfCurrent(key string, v V, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen == gen {
		s.lru.Add(key, v)
	}
}

// Len reports the number of cached entries.
func (s *Store[V]) Len() int {
	if s == nil {
		return 0
	}

	return s.lru.Len()
}
