// Package datacache is the cache-first data access layer in front of the
// FPL origin. A single-flight guard bounds origin load to one in-flight
// request per key, and expired entries are kept around so they can be served
// stale when the origin is down.
package datacache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Category groups cache keys by how quickly the underlying data changes.
type Category string

const (
	CategoryStats     Category = "stats"
	CategorySchedule  Category = "schedule"
	CategoryReference Category = "reference"
)

// ErrDataUnavailable is returned only after cache, stale cache and a retried
// origin call have all failed.
var ErrDataUnavailable = errors.New("data unavailable")

// Origin is the upstream data source, invoked only on cache miss.
// *fpl.Client satisfies it.
type Origin interface {
	Get(ctx context.Context, endpoint string) ([]byte, error)
}

// Result carries a payload plus a staleness flag for observability.
type Result struct {
	Payload []byte
	Stale   bool
}

type entry struct {
	payload   []byte
	category  Category
	expiresAt time.Time
}

type Store struct {
	origin       Origin
	ttls         map[Category]time.Duration
	retryBackoff time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	now func() time.Time
}

// DefaultTTLs reflect how often each category moves upstream.
func DefaultTTLs() map[Category]time.Duration {
	return map[Category]time.Duration{
		CategoryStats:     30 * time.Minute,
		CategorySchedule:  24 * time.Hour,
		CategoryReference: 7 * 24 * time.Hour,
	}
}

func New(origin Origin, ttls map[Category]time.Duration, retryBackoff time.Duration, logger *zap.Logger) *Store {
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &Store{
		origin:       origin,
		ttls:         ttls,
		retryBackoff: retryBackoff,
		logger:       logger,
		entries:      make(map[string]entry),
		now:          time.Now,
	}
}

// Fetch returns the payload for key, from cache when fresh, otherwise through
// a single shared origin call. Concurrent callers for the same uncached key
// wait on one fetch instead of issuing duplicates. A cancelled caller stops
// waiting; the underlying fetch keeps running for the remaining waiters.
func (s *Store) Fetch(ctx context.Context, key string, cat Category) (Result, error) {
	cacheKey := string(cat) + ":" + key

	if e, ok := s.lookup(cacheKey); ok && s.now().Before(e.expiresAt) {
		return Result{Payload: e.payload}, nil
	}

	ch := s.group.DoChan(cacheKey, func() (interface{}, error) {
		return s.load(cacheKey, key, cat)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// load is the fetch owner's path: one origin call, one retried call, then
// stale-if-error. It deliberately does not use the waiter's context; the
// origin client enforces its own timeout.
func (s *Store) load(cacheKey, key string, cat Category) (Result, error) {
	ctx := context.Background()

	payload, err := s.origin.Get(ctx, key)
	if err != nil {
		s.logger.Warn("origin fetch failed, retrying",
			zap.String("key", key),
			zap.Error(err))
		time.Sleep(s.retryBackoff)
		payload, err = s.origin.Get(ctx, key)
	}

	if err != nil {
		if e, ok := s.lookup(cacheKey); ok {
			s.logger.Warn("origin unavailable, serving stale entry",
				zap.String("key", key),
				zap.Time("expired_at", e.expiresAt))
			return Result{Payload: e.payload, Stale: true}, nil
		}
		return Result{}, fmt.Errorf("%w: origin failed for %s: %v", ErrDataUnavailable, key, err)
	}

	s.put(cacheKey, cat, payload)
	return Result{Payload: payload}, nil
}

func (s *Store) lookup(key string) (entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *Store) put(key string, cat Category, payload []byte) {
	ttl, ok := s.ttls[cat]
	if !ok {
		ttl = 30 * time.Minute
	}
	s.mu.Lock()
	s.entries[key] = entry{
		payload:   payload,
		category:  cat,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
}

// Invalidate drops a key so the next Fetch goes to the origin.
func (s *Store) Invalidate(key string, cat Category) {
	s.mu.Lock()
	delete(s.entries, string(cat)+":"+key)
	s.mu.Unlock()
}
