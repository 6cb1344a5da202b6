package social

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/metrics"
	"github.com/streamhub/backend/internal/models"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*size within an int for every accepted size.
	MaxPage = math.MaxInt / MaxPageSize
)

// FeedParams carries the raw listing parameters as received from the caller.
type FeedParams struct {
	Query    string
	UserID   string
	SortBy   string
	SortType string
	Page     string
	Limit    string
}

// ParseFeedQuery normalizes raw parameters. Paging and sorting fall back to their
// defaults instead of failing; only a malformed owner id is rejected.
func ParseFeedQuery(p FeedParams) (models.FeedQuery, error) {
	q := models.FeedQuery{
		Search:    strings.TrimSpace(p.Query),
		SortField: models.SortByCreatedAt,
		Page:      parsePositive(p.Page, DefaultPage, MaxPage),
		PageSize:  parsePositive(p.Limit, DefaultPageSize, MaxPageSize),
	}

	if owner := strings.TrimSpace(p.UserID); owner != "" {
		id, err := ParseID(owner)
		if err != nil {
			return models.FeedQuery{}, err
		}
		q.OwnerID = id
	}

	switch field := models.SortField(strings.TrimSpace(p.SortBy)); field {
	case models.SortByCreatedAt, models.SortByViews, models.SortByDuration, models.SortByTitle:
		q.SortField = field
	}
	q.Ascending = strings.EqualFold(strings.TrimSpace(p.SortType), "asc")

	return q, nil
}

// parsePositive returns raw as an int when it is at least 1 and, if limit > 0, at
// most limit. Anything else yields fallback.
func parsePositive(raw string, fallback, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || (limit > 0 && n > limit) {
		return fallback
	}
	return n
}

// Feed lists published videos.
type Feed struct {
	store FeedStore
}

// NewFeed constructs a Feed over store.
func NewFeed(store FeedStore) *Feed {
	return &Feed{store: store}
}

// ListVideos returns one page of published videos. An empty page is a success.
func (f *Feed) ListVideos(ctx context.Context, q models.FeedQuery) (models.VideoPage, error) {
	if q.Page < 1 || q.Page > MaxPage {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = DefaultPageSize
	}

	start := time.Now()
	ctx, span := logging.StartSpan(ctx, "social.list_videos")
	defer func() {
		metrics.ObserveAggregation("list_videos", start)
		span.End()
	}()

	page, err := f.store.ListPublished(ctx, q)
	if err != nil {
		span.RecordError(err)
		return models.VideoPage{}, fmt.Errorf("list videos: %w", storeError(err))
	}
	return page, nil
}
