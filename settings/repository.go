package settings

import (
	"context"
	"sort"
	"sync"
)

// Repository is the source of truth behind the cache. Implementations
// return [ErrNotFound] for missing keys.
type Repository interface {
	Get(ctx context.Context, key string) (Setting, error)
	Upsert(ctx context.Context, setting Setting) error
	Delete(ctx context.Context, key string) error
	ListByCategory(ctx context.Context, category string, publicOnly bool) ([]Setting, error)
	ListAll(ctx context.Context, publicOnly bool) ([]Setting, error)
}

// MemoryRepository is an in-memory Repository for tests and
// single-process deployments.
type MemoryRepository struct {
	mu       sync.RWMutex
	settings map[string]Setting
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{settings: make(map[string]Setting)}
}

// Get implements [Repository].
func (r *MemoryRepository) Get(_ context.Context, key string) (Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	setting, ok := r.settings[key]
	if !ok {
		return Setting{}, ErrNotFound
	}
	return setting, nil
}

// Upsert implements [Repository].
func (r *MemoryRepository) Upsert(_ context.Context, setting Setting) error {
	r.mu.Lock()
	r.settings[setting.Key] = setting
	r.mu.Unlock()
	return nil
}

// Delete implements [Repository].
func (r *MemoryRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.settings, key)
	r.mu.Unlock()
	return nil
}

// ListByCategory implements [Repository].
func (r *MemoryRepository) ListByCategory(_ context.Context, category string, publicOnly bool) ([]Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Setting
	for _, setting := range r.settings {
		if setting.Category != category {
			continue
		}
		if publicOnly && !setting.IsPublic {
			continue
		}
		out = append(out, setting)
	}
	sortSettings(out)
	return out, nil
}

// ListAll implements [Repository].
func (r *MemoryRepository) ListAll(_ context.Context, publicOnly bool) ([]Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Setting
	for _, setting := range r.settings {
		if publicOnly && !setting.IsPublic {
			continue
		}
		out = append(out, setting)
	}
	sortSettings(out)
	return out, nil
}

func sortSettings(list []Setting) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Key < list[j].Key
	})
}
