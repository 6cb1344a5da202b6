package videos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/models"
	"github.com/streamhub/backend/internal/repositories"
	"github.com/streamhub/backend/internal/social"
)

// AssetStorage uploads media to the media host and returns its public location.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Upload is one file of a publish request.
type Upload struct {
	Name string
	Body io.Reader
}

// PublishRequest carries the fields of a new video.
type PublishRequest struct {
	Title       string
	Description string
	Duration    float64
	Video       Upload
	Thumbnail   Upload
}

// FeedInvalidator drops cached feed pages once the set of published videos changes.
type FeedInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Publisher creates videos from uploads and flips their publish state.
type Publisher struct {
	storage AssetStorage
	videos  repositories.VideoRepository
	feed    FeedInvalidator
	now     func() time.Time
}

// NewPublisher constructs a Publisher. storage may be nil when no media host is
// configured; Publish then fails with ErrStorageUnavailable. feed may be nil when
// the feed is not cached.
func NewPublisher(storage AssetStorage, videos repositories.VideoRepository, feed FeedInvalidator) *Publisher {
	return &Publisher{
		storage: storage,
		videos:  videos,
		feed:    feed,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish uploads the video and thumbnail and stores a published video owned by viewer.
func (p *Publisher) Publish(ctx context.Context, viewer social.Viewer, req PublishRequest) (models.Video, error) {
	if viewer.IsAnonymous() {
		return models.Video{}, social.ErrUnauthorized
	}
	if p.storage == nil {
		return models.Video{}, ErrStorageUnavailable
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	switch {
	case req.Title == "":
		return models.Video{}, fmt.Errorf("%w: title is required", ErrInvalidUpload)
	case req.Video.Body == nil:
		return models.Video{}, fmt.Errorf("%w: video file is required", ErrInvalidUpload)
	case req.Duration < 0:
		return models.Video{}, fmt.Errorf("%w: duration must not be negative", ErrInvalidUpload)
	}

	id := uuid.NewString()
	logger := logging.FromContext(ctx).With(slog.String("video_id", id), slog.String("owner_id", viewer.ID()))

	videoURL, err := p.storage.Save(ctx, objectKey("videos", viewer.ID(), id, req.Video.Name), req.Video.Body)
	if err != nil {
		return models.Video{}, fmt.Errorf("upload video: %w", err)
	}

	var thumbnailURL string
	if req.Thumbnail.Body != nil {
		thumbnailURL, err = p.storage.Save(ctx, objectKey("thumbnails", viewer.ID(), id, req.Thumbnail.Name), req.Thumbnail.Body)
		if err != nil {
			return models.Video{}, fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	now := p.now()
	video := models.Video{
		ID:           id,
		OwnerID:      viewer.ID(),
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     req.Duration,
		IsPublished:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.videos.Create(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("store video: %w", err)
	}
	p.invalidateFeed(ctx)

	logger.Info("video published", slog.String("location", videoURL))
	return video, nil
}

// TogglePublish flips the publish state of a video owned by viewer and returns
// the new state.
func (p *Publisher) TogglePublish(ctx context.Context, videoID string, viewer social.Viewer) (bool, error) {
	if viewer.IsAnonymous() {
		return false, social.ErrUnauthorized
	}
	id, err := social.ParseID(videoID)
	if err != nil {
		return false, err
	}

	published, err := p.videos.TogglePublished(ctx, id, viewer.ID())
	switch {
	case err == nil:
		p.invalidateFeed(ctx)
		return published, nil
	case errors.Is(err, repositories.ErrNotOwner):
		return false, social.ErrUnauthorized
	default:
		return false, fmt.Errorf("toggle publish %s: %w", id, err)
	}
}

// invalidateFeed runs after the write has committed, so a failure is logged and
// counted rather than returned.
func (p *Publisher) invalidateFeed(ctx context.Context) {
	if p.feed == nil {
		return
	}
	if err := p.feed.Invalidate(ctx); err != nil {
		metrics.IncSideEffectFailure("feed_invalidate")
		logging.FromContext(ctx).Error("feed cache invalidation failed", slog.Any("error", err))
	}
}

func objectKey(prefix, ownerID, videoID, filename string) string {
	return path.Join(prefix, ownerID, videoID+strings.ToLower(path.Ext(filename)))
}
