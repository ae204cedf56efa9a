// Package memory provides a process-local session store for single-binary
// deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ideonhq/ideon/pkg/cache"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Store implements cache.Store on a mutex-guarded map. Expired entries are
// evicted lazily on access.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewStore creates an empty in-process store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", cache.ErrKeyNotFound
	}

	if e.expired(time.Now()) {
		delete(s.entries, key)

		return "", cache.ErrKeyNotFound
	}

	return e.value, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{value: value, expiresAt: expiry(ttl)}

	return nil
}

func (s *Store) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && !e.expired(time.Now()) {
		return false, nil
	}

	s.entries[key] = entry{value: value, expiresAt: expiry(ttl)}

	return true, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

func (s *Store) Close() error {
	return nil
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}

	return time.Now().Add(ttl)
}
