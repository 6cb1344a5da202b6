package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/streamhub/backend/internal/auth"
	"github.com/streamhub/backend/internal/config"
	"github.com/streamhub/backend/internal/db"
	"github.com/streamhub/backend/internal/feedcache"
	"github.com/streamhub/backend/internal/handlers"
	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/middleware"
	"github.com/streamhub/backend/internal/repositories"
	"github.com/streamhub/backend/internal/social"
	"github.com/streamhub/backend/internal/storage"
	"github.com/streamhub/backend/internal/videos"
)

// relationStore is the union of reads and writes the social services need.
type relationStore interface {
	social.EdgeStore
	social.TargetResolver
	social.ViewStore
	social.FeedStore
	social.EngagementStore
}

type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// pool may be nil when cfg.Store is "memory".
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, cleanupFunc, error) {
	logger := logging.FromContext(ctx)

	var (
		relations relationStore
		users     repositories.UserRepository
		videoRepo repositories.VideoRepository
		sessions  auth.SessionStore
		ready     func(context.Context) error
	)
	switch cfg.Store {
	case "memory":
		store := repositories.NewMemoryStore()
		relations, users, videoRepo = store, store.Users(), store.Videos()
		sessions = auth.NewInMemorySessionStore()
	default:
		if pool == nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("store %q requires a database pool", cfg.Store)
		}
		relations = repositories.NewPostgresRelationStore(pool)
		users = repositories.NewPostgresUserRepository(pool)
		videoRepo = repositories.NewPostgresVideoRepository(pool)
		sessions = repositories.NewPostgresSessionStore(pool)
		ready = func(ctx context.Context) error { return db.Ping(ctx, pool) }
	}

	cleanup := func(context.Context) error { return nil }

	// A process-local cache is only used with the process-local store: replicas
	// sharing Postgres could not see each other's invalidations.
	var backend feedcache.Backend
	switch {
	case cfg.Redis.Addr != "":
		client := feedcache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		backend = feedcache.NewRedisBackend(client)
		cleanup = func(context.Context) error { return client.Close() }
		logger.Info("feed cache backed by redis", slog.String("addr", cfg.Redis.Addr))
	case cfg.Store == "memory":
		backend = feedcache.NewMemoryBackend()
	default:
		logger.Info("feed cache disabled, set redis.addr to enable it")
	}

	var (
		feedSource  social.FeedStore = relations
		invalidator videos.FeedInvalidator
	)
	if backend != nil {
		cache := feedcache.New(relations, backend, cfg.FeedCacheTTL)
		feedSource, invalidator = cache, cache
	}

	var assets videos.AssetStorage
	if cfg.ObjectStorage.Bucket != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.ObjectStorage)
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, err
		}
		assets = s3Storage
	} else {
		logger.Warn("object storage not configured, video publishing disabled")
	}

	toggler := social.NewToggler(relations)
	limiter := middleware.NewKeyedRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitBurst, 0)

	deps := handlers.Dependencies{
		Users:     users,
		Sessions:  auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessions),
		Toggles:   social.NewGuard(toggler, relations, cfg.AllowSelfSubscribe),
		Views:     social.NewAggregator(relations, social.NewEngagement(relations)),
		Feed:      social.NewFeed(feedSource),
		Publisher: videos.NewPublisher(assets, videoRepo, invalidator),
		Limiter:   limiter,
		Metrics:   metrics.Handler(),
		Ready:     ready,
	}

	return deps, cleanup, nil
}

// newHandler builds the routed, instrumented HTTP handler.
func newHandler(logger *slog.Logger, deps handlers.Dependencies) http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	return middleware.RequestLogger(logger)(middleware.Metrics(mux))
}
