package feedcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/models"
)

// ErrMiss is returned by a Backend when the key is absent or expired.
var ErrMiss = errors.New("feed cache miss")

// Backend stores rendered feed pages by key. Generation names the current key
// space; Bump moves to a new one so every earlier page becomes unreachable.
type Backend interface {
	Get(ctx context.Context, key string) (models.VideoPage, error)
	Set(ctx context.Context, key string, page models.VideoPage, ttl time.Duration) error
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
}

// Source is the uncached feed listing.
type Source interface {
	ListPublished(ctx context.Context, q models.FeedQuery) (models.VideoPage, error)
}

// Store serves feed pages from a Backend and falls through to Source on a miss
// or a backend failure. Invalidate must be called after any change to which
// videos are published; view counts in cached pages may lag by up to ttl.
type Store struct {
	source  Source
	backend Backend
	ttl     time.Duration
}

// New wraps source with backend. A non-positive ttl defaults to thirty seconds.
func New(source Source, backend Backend, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{source: source, backend: backend, ttl: ttl}
}

// ListPublished returns the cached page for q when present, otherwise it lists
// from the source and stores the result. Without a readable generation the
// cache is bypassed.
func (s *Store) ListPublished(ctx context.Context, q models.FeedQuery) (models.VideoPage, error) {
	logger := logging.FromContext(ctx)

	gen, err := s.backend.Generation(ctx)
	if err != nil {
		metrics.IncFeedCache("error")
		logger.Warn("feed cache generation unavailable", slog.Any("error", err))
		return s.source.ListPublished(ctx, q)
	}
	key := generationKey(gen, q)

	page, err := s.backend.Get(ctx, key)
	switch {
	case err == nil:
		metrics.IncFeedCache("hit")
		return page, nil
	case errors.Is(err, ErrMiss):
		metrics.IncFeedCache("miss")
	default:
		metrics.IncFeedCache("error")
		logger.Warn("feed cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	page, err = s.source.ListPublished(ctx, q)
	if err != nil {
		return models.VideoPage{}, err
	}

	if err := s.backend.Set(ctx, key, page, s.ttl); err != nil {
		logger.Warn("feed cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return page, nil
}

// Invalidate drops every cached page.
func (s *Store) Invalidate(ctx context.Context) error {
	if err := s.backend.Bump(ctx); err != nil {
		metrics.IncFeedCache("error")
		return fmt.Errorf("invalidate feed cache: %w", err)
	}
	metrics.IncFeedCache("invalidate")
	return nil
}

// A page stored under an older generation is never read again, even when it is
// written after the bump that retired it.
func generationKey(gen int64, q models.FeedQuery) string {
	return fmt.Sprintf("g%d:%s", gen, q.CacheKey())
}
