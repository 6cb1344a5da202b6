package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
)

const (
	effectViews        = "views"
	effectWatchHistory = "watch_history"
)

// Engagement records a view: it bumps the counter and adds the video to the
// viewer's watch history. The two writes are independent.
type Engagement struct {
	store EngagementStore
}

// NewEngagement constructs an applier over store.
func NewEngagement(store EngagementStore) *Engagement {
	return &Engagement{store: store}
}

// Apply performs both writes for a concrete viewer and is a no-op for anonymous
// viewers. Every write is attempted; failures are logged, counted and joined.
func (e *Engagement) Apply(ctx context.Context, videoID string, viewer Viewer) error {
	if viewer.IsAnonymous() {
		return nil
	}

	logger := logging.FromContext(ctx)
	var errs []error

	if err := e.store.IncrementViews(ctx, videoID); err != nil {
		metrics.IncSideEffectFailure(effectViews)
		logger.Warn("increment views failed", slog.String("video_id", videoID), slog.Any("error", err))
		errs = append(errs, fmt.Errorf("increment views: %w", err))
	}

	if err := e.store.AddToWatchHistory(ctx, viewer.ID(), videoID); err != nil {
		metrics.IncSideEffectFailure(effectWatchHistory)
		logger.Warn("record watch history failed",
			slog.String("video_id", videoID),
			slog.String("viewer_id", viewer.ID()),
			slog.Any("error", err),
		)
		errs = append(errs, fmt.Errorf("add to watch history: %w", err))
	}

	return errors.Join(errs...)
}
