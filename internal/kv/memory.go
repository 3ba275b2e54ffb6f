package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation for tests and local
// development. Listing walks the keys in sorted order and uses the last
// returned key as the continuation cursor, so a listing survives
// concurrent writes the same way a SCAN does: restartable, with no
// ordering guarantees across pages.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]string
	pageSize int
}

// NewMemoryStore creates an empty in-memory store with the default
// page size.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithPageSize(DefaultPageSize)
}

// NewMemoryStoreWithPageSize creates an empty in-memory store with a
// custom listing page size. Small page sizes are useful in tests that
// exercise pagination.
func NewMemoryStoreWithPageSize(pageSize int) *MemoryStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &MemoryStore{
		data:     make(map[string]string),
		pageSize: pageSize,
	}
}

// Get returns the value for key, or ok=false when the key is absent.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok, nil
}

// Put stores value under key.
func (s *MemoryStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = value
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// List returns one page of keys starting with prefix, in sorted order.
func (s *MemoryStore) List(_ context.Context, prefix, cursor string) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) && k > cursor {
			matching = append(matching, k)
		}
	}
	sort.Strings(matching)

	page := Page{Complete: true}
	if len(matching) > s.pageSize {
		matching = matching[:s.pageSize]
		page.Complete = false
		page.Cursor = matching[len(matching)-1]
	}
	page.Keys = matching
	return page, nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
