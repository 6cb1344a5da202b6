package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/models"
)

// Aggregator computes viewer-relative derived documents from entities and edges.
// A failed store call aborts the whole read; no partial document is returned.
type Aggregator struct {
	store      ViewStore
	engagement *Engagement
}

// NewAggregator constructs an Aggregator. engagement may be nil, in which case
// video reads have no side effects.
func NewAggregator(store ViewStore, engagement *Engagement) *Aggregator {
	return &Aggregator{store: store, engagement: engagement}
}

// observe starts a span and the latency timer for operation. Callers record
// store failures on the span before the returned func ends it.
func (a *Aggregator) observe(ctx context.Context, operation string) (context.Context, *logging.Span, func()) {
	start := time.Now()
	ctx, span := logging.StartSpan(ctx, "social."+operation)
	return ctx, span, func() {
		metrics.ObserveAggregation(operation, start)
		span.End()
	}
}

// ChannelProfile returns the channel named username with its subscriber count,
// the number of channels it follows and whether viewer is subscribed to it.
func (a *Aggregator) ChannelProfile(ctx context.Context, username string, viewer Viewer) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, fmt.Errorf("%w: empty username", ErrInvalidReference)
	}

	ctx, span, done := a.observe(ctx, "channel_profile")
	defer done()

	profile, err := a.store.ChannelProfile(ctx, username, viewer.ID())
	if err != nil {
		span.RecordError(err)
		return models.ChannelProfile{}, fmt.Errorf("channel profile %q: %w", username, storeError(err))
	}
	return profile, nil
}

// VideoDetail returns the video with its like facts and an owner block enriched
// relative to viewer. A concrete viewer's read is then recorded as a view; the
// document returned is the one read before that.
func (a *Aggregator) VideoDetail(ctx context.Context, videoID string, viewer Viewer) (models.VideoDetail, error) {
	id, err := ParseID(videoID)
	if err != nil {
		return models.VideoDetail{}, err
	}

	ctx, span, done := a.observe(ctx, "video_detail")
	defer done()

	detail, err := a.store.VideoDetail(ctx, id, viewer.ID())
	if err != nil {
		span.RecordError(err)
		return models.VideoDetail{}, fmt.Errorf("video detail %s: %w", id, storeError(err))
	}

	if a.engagement != nil && !viewer.IsAnonymous() {
		// Failures are already logged and counted by Apply.
		_ = a.engagement.Apply(ctx, id, viewer)
	}

	return detail, nil
}

// LikedVideos lists the videos viewer liked, newest like first. Anonymous viewers
// have liked nothing.
func (a *Aggregator) LikedVideos(ctx context.Context, viewer Viewer) ([]models.VideoSummary, error) {
	if viewer.IsAnonymous() {
		return []models.VideoSummary{}, nil
	}

	ctx, span, done := a.observe(ctx, "liked_videos")
	defer done()

	videos, err := a.store.LikedVideos(ctx, viewer.ID())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("liked videos: %w", storeError(err))
	}
	return videos, nil
}

// WatchHistory lists the videos viewer has watched in stored order.
func (a *Aggregator) WatchHistory(ctx context.Context, viewer Viewer) ([]models.VideoSummary, error) {
	if viewer.IsAnonymous() {
		return []models.VideoSummary{}, nil
	}

	ctx, span, done := a.observe(ctx, "watch_history")
	defer done()

	videos, err := a.store.WatchHistory(ctx, viewer.ID())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("watch history: %w", storeError(err))
	}
	return videos, nil
}

// ChannelStats returns the dashboard totals for ownerID.
func (a *Aggregator) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	id, err := ParseID(ownerID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	ctx, span, done := a.observe(ctx, "channel_stats")
	defer done()

	stats, err := a.store.ChannelStats(ctx, id)
	if err != nil {
		span.RecordError(err)
		return models.ChannelStats{}, fmt.Errorf("channel stats %s: %w", id, storeError(err))
	}
	return stats, nil
}

// ChannelVideos lists every video ownerID owns, drafts included.
func (a *Aggregator) ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error) {
	id, err := ParseID(ownerID)
	if err != nil {
		return nil, err
	}

	ctx, span, done := a.observe(ctx, "channel_videos")
	defer done()

	videos, err := a.store.ChannelVideos(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("channel videos %s: %w", id, storeError(err))
	}
	return videos, nil
}

// ChannelSubscribers lists the users subscribed to channelID.
func (a *Aggregator) ChannelSubscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error) {
	id, err := ParseID(channelID)
	if err != nil {
		return nil, err
	}

	ctx, span, done := a.observe(ctx, "channel_subscribers")
	defer done()

	channels, err := a.store.ChannelSubscribers(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("channel subscribers %s: %w", id, storeError(err))
	}
	return channels, nil
}

// SubscribedChannels lists the channels subscriberID follows.
func (a *Aggregator) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	id, err := ParseID(subscriberID)
	if err != nil {
		return nil, err
	}

	ctx, span, done := a.observe(ctx, "subscribed_channels")
	defer done()

	channels, err := a.store.SubscribedChannels(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("subscribed channels %s: %w", id, storeError(err))
	}
	return channels, nil
}
