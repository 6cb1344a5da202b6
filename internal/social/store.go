package social

import (
	"context"
	"time"

	"github.com/streamhub/backend/internal/models"
)

// EdgeStore persists subscription and like edges keyed by their composite identity.
// InsertEdge must fail with ErrConflict when the key already exists.
type EdgeStore interface {
	EdgeExists(ctx context.Context, key models.EdgeKey) (bool, error)
	InsertEdge(ctx context.Context, key models.EdgeKey, at time.Time) error
	DeleteEdge(ctx context.Context, key models.EdgeKey) (bool, error)
}

// TargetResolver confirms that the entity an edge would point at exists.
type TargetResolver interface {
	TargetExists(ctx context.Context, kind models.EdgeKind, id string) (bool, error)
}

// ViewStore computes derived documents. Each method is a single query or batch.
// An empty viewerID means anonymous.
type ViewStore interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoSummary, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoSummary, error)
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error)
}

// FeedStore lists published videos.
type FeedStore interface {
	ListPublished(ctx context.Context, q models.FeedQuery) (models.VideoPage, error)
}

// EngagementStore applies the per-view writes.
type EngagementStore interface {
	IncrementViews(ctx context.Context, videoID string) error
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
}
