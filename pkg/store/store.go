// Package store provides a generic, thread-safe, in-memory store for twin
// resources. Items keep their insertion order so listings are deterministic,
// and IDs come from a pluggable generator.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
)

// Keyed is implemented by every item kept in a Store.
type Keyed interface {
	Key() string
}

// IDFunc produces a fresh item ID.
type IDFunc func() string

// Store is a generic, thread-safe, in-memory store for items of type T.
type Store[T Keyed] struct {
	mu     sync.RWMutex
	items  map[string]T
	order  []string // insertion order for deterministic listing
	nextID IDFunc
}

// New creates a Store that draws IDs from next.
func New[T Keyed](next IDFunc) *Store[T] {
	return &Store[T]{
		items:  make(map[string]T),
		order:  make([]string, 0),
		nextID: next,
	}
}

// Sequential returns an IDFunc yielding "{prefix}_{counter}" IDs,
// e.g. "story_000001". Handy for deterministic tests.
func Sequential(prefix string) IDFunc {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s_%06d", prefix, n.Add(1))
	}
}

// NextID generates an ID using the store's generator.
func (s *Store[T]) NextID() string {
	return s.nextID()
}

// Set stores an item under item.Key(). Overwriting keeps the original
// position in the insertion order.
func (s *Store[T]) Set(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := item.Key()
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

// Get retrieves an item by ID.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Update applies fn to the stored item with the given ID under the write lock.
// Returns false when no such item exists.
func (s *Store[T]) Update(id string, fn func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return false
	}
	s.items[id] = fn(item)
	return true
}

// Delete removes an item by ID. Returns true if the item existed.
func (s *Store[T]) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns all items in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]T, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id])
	}
	return result
}

// Count returns the number of items in the store.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Reset clears all items.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
	s.order = make([]string, 0)
}

// Load replaces the contents with items, in the given order.
func (s *Store[T]) Load(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T, len(items))
	s.order = make([]string, 0, len(items))
	for _, item := range items {
		id := item.Key()
		if _, dup := s.items[id]; !dup {
			s.order = append(s.order, id)
		}
		s.items[id] = item
	}
}

// MarshalJSON serializes the store as an ordered JSON array.
func (s *Store[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON replaces the store contents from a JSON array.
func (s *Store[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.Load(items)
	return nil
}
