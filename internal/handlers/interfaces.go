package handlers

import (
	"context"

	"github.com/streamhub/backend/internal/models"
	"github.com/streamhub/backend/internal/social"
	"github.com/streamhub/backend/internal/videos"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// SessionManager issues, verifies and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Authenticate(ctx context.Context, accessToken string) (string, error)
	Revoke(ctx context.Context, token string)
}

// Toggler flips subscription and like edges on behalf of a viewer.
type Toggler interface {
	Toggle(ctx context.Context, kind models.EdgeKind, viewer social.Viewer, targetID string) (social.ToggleResult, error)
}

// Aggregator assembles the read documents served by the channel, video and dashboard endpoints.
type Aggregator interface {
	ChannelProfile(ctx context.Context, username string, viewer social.Viewer) (models.ChannelProfile, error)
	VideoDetail(ctx context.Context, videoID string, viewer social.Viewer) (models.VideoDetail, error)
	LikedVideos(ctx context.Context, viewer social.Viewer) ([]models.VideoSummary, error)
	WatchHistory(ctx context.Context, viewer social.Viewer) ([]models.VideoSummary, error)
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error)
}

// FeedLister pages through published videos.
type FeedLister interface {
	ListVideos(ctx context.Context, q models.FeedQuery) (models.VideoPage, error)
}

// Publisher creates videos from uploads and flips their publish state.
type Publisher interface {
	Publish(ctx context.Context, viewer social.Viewer, req videos.PublishRequest) (models.Video, error)
	TogglePublish(ctx context.Context, videoID string, viewer social.Viewer) (bool, error)
}
