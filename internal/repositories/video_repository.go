package repositories

import (
	"context"

	"github.com/streamhub/backend/internal/models"
)

// VideoRepository exposes the write paths for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	TogglePublished(ctx context.Context, videoID, ownerID string) (bool, error)
}
