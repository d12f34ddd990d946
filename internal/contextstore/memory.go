package contextstore

import (
	"context"
	"sync"
)

// MemoryBackend is the in-process fallback store. It is not shared across
// process instances, is lost on restart, and enforces no expiry.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string][]Turn
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]Turn)}
}

func (b *MemoryBackend) Get(_ context.Context, userID string) ([]Turn, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	stored, ok := b.entries[userID]
	if !ok {
		return nil, nil
	}
	turns := make([]Turn, len(stored))
	copy(turns, stored)
	return turns, nil
}

func (b *MemoryBackend) Set(_ context.Context, userID string, turns []Turn) error {
	stored := make([]Turn, len(turns))
	copy(stored, turns)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[userID] = stored
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, userID)
	return nil
}

func (b *MemoryBackend) Ping(context.Context) error {
	return nil
}
