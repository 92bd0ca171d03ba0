// Package memory provides a thread-safe in-memory securestore.Backend.
package memory

import (
	"sync"

	"github.com/jrsteele09/lingo-session/securestore"
)

// Backend is a thread-safe in-memory implementation of securestore.Backend.
// Suitable for testing and single-process use where nothing must survive a restart.
type Backend struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ securestore.Backend = (*Backend)(nil)

// New creates an empty in-memory Backend.
func New() *Backend {
	return &Backend{data: make(map[string]map[string][]byte)}
}

func (b *Backend) Get(namespace, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[namespace][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (b *Backend) Set(namespace, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[namespace]; !ok {
		b.data[namespace] = make(map[string][]byte)
	}
	b.data[namespace][key] = append([]byte(nil), value...)
	return nil
}

func (b *Backend) Delete(namespace, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data[namespace], key)
	if len(b.data[namespace]) == 0 {
		delete(b.data, namespace)
	}
	return nil
}

func (b *Backend) Clear(namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, namespace)
	return nil
}

// Raw returns the stored bytes for inspection in tests.
func (b *Backend) Raw(namespace, key string) []byte {
	v, _ := b.Get(namespace, key)
	return v
}
