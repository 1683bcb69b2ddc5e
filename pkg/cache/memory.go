package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and development setups
// without a Redis instance. Expiry is checked lazily on read.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	raw       []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem)}
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.live(key)
	if !ok {
		return false
	}
	return json.Unmarshal(it.raw, dest) == nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{raw: b, expiresAt: time.Now().Add(ttl)}
	return true
}

func (s *MemoryStore) Del(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return true
}

func (s *MemoryStore) FlushAll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]memoryItem)
	return true
}

func (s *MemoryStore) TakeOnce(ctx context.Context, key, expected string) bool {
	b, err := json.Marshal(expected)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.live(key)
	if !ok || string(it.raw) != string(b) {
		return false
	}
	delete(s.items, key)
	return true
}

// live must be called with mu held.
func (s *MemoryStore) live(key string) (memoryItem, bool) {
	it, ok := s.items[key]
	if !ok {
		return memoryItem{}, false
	}
	if time.Now().After(it.expiresAt) {
		delete(s.items, key)
		return memoryItem{}, false
	}
	return it, true
}

var _ Store = (*MemoryStore)(nil)
