package feedcache

import (
	"context"
	"sync"
	"time"

	"github.com/streamhub/backend/internal/models"
)

type cacheEntry struct {
	page    models.VideoPage
	expires time.Time
}

// MemoryBackend is a process-local Backend with per-entry expiry.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	gen   int64
	now   func() time.Time
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: make(map[string]cacheEntry),
		now:   time.Now,
	}
}

// Get returns the page stored under key unless it has expired.
func (b *MemoryBackend) Get(_ context.Context, key string) (models.VideoPage, error) {
	now := b.now()

	b.mu.RLock()
	entry, ok := b.items[key]
	b.mu.RUnlock()
	if !ok || !now.Before(entry.expires) {
		return models.VideoPage{}, ErrMiss
	}

	return entry.page, nil
}

// Set stores page under key for ttl and drops expired entries.
func (b *MemoryBackend) Set(_ context.Context, key string, page models.VideoPage, ttl time.Duration) error {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	for k, entry := range b.items {
		if !now.Before(entry.expires) {
			delete(b.items, k)
		}
	}
	b.items[key] = cacheEntry{page: page, expires: now.Add(ttl)}
	return nil
}

// Generation returns the current key generation.
func (b *MemoryBackend) Generation(context.Context) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gen, nil
}

// Bump starts a new generation and drops every stored page.
func (b *MemoryBackend) Bump(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	clear(b.items)
	return nil
}
