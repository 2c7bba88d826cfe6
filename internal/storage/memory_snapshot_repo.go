package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/fps-core/internal/world"
)

// MemorySnapshotRepo хранит сжатые снимки в памяти.
// Используется для тестов и запуска без внешнего хранилища.
type MemorySnapshotRepo struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemorySnapshotRepo создаёт пустое хранилище
func NewMemorySnapshotRepo() *MemorySnapshotRepo {
	return &MemorySnapshotRepo{slots: make(map[string][]byte)}
}

// Save сохраняет снимок. Данные кодируются, чтобы последующие изменения сцены их не задели.
func (r *MemorySnapshotRepo) Save(ctx context.Context, key string, snap *world.Snapshot) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("слот %s: %w", key, err)
	}

	r.mu.Lock()
	r.slots[key] = data
	r.mu.Unlock()
	return nil
}

func (r *MemorySnapshotRepo) Load(ctx context.Context, key string) (*world.Snapshot, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	r.mu.RLock()
	data, ok := r.slots[key]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	return DecodeSnapshot(data)
}

func (r *MemorySnapshotRepo) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slots[key]; !ok {
		return fmt.Errorf("слот %s: %w", key, ErrSnapshotNotFound)
	}
	delete(r.slots, key)
	return nil
}

func (r *MemorySnapshotRepo) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	keys := make([]string, 0, len(r.slots))
	for k := range r.slots {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Strings(keys)
	return keys, nil
}

func (r *MemorySnapshotRepo) Close() error { return nil }
