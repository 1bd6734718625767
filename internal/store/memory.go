package store

import (
	"context"
	"sync"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// Memory keeps cart content in process. Values are cloned on the way in and
// out so callers never share rows with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*cart.Content
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*cart.Content)}
}

// Get implements cart.Store.
func (m *Memory) Get(_ context.Context, key string) (*cart.Content, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return content.Clone(), nil
}

// Put implements cart.Store.
func (m *Memory) Put(_ context.Context, key string, content *cart.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = content.Clone()
	return nil
}

// Remove implements cart.Store.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
