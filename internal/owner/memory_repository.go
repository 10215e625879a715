package owner

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Owner
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Owner)}
}

func (r *memoryRepository) Create(_ context.Context, o Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[o.ID]; exists {
		return errors.New("owner exists")
	}
	r.storage[o.ID] = o
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.storage[id]
	if !ok {
		return Owner{}, ErrNotFound
	}
	return o, nil
}
