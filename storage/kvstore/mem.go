package kvstore

import (
	"sync"

	"github.com/annourmah/etudia/core"
)

// MemStore is the in-memory store used by tests.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string
}

var _ core.KVStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (ms *MemStore) Get(key string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	val, ok := ms.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return []byte(val), nil
}

func (ms *MemStore) Set(key string, value []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[key] = string(value)
	return nil
}

func (ms *MemStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.data[key]; !ok {
		return core.ErrKeyNotFound
	}
	delete(ms.data, key)
	return nil
}
