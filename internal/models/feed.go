package models

import (
	"fmt"
	"math"
)

// SortField is a whitelisted column the feed can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByViews     SortField = "views"
	SortByDuration  SortField = "duration"
	SortByTitle     SortField = "title"
)

// FeedQuery is a normalized listing request over published videos.
type FeedQuery struct {
	Search    string
	OwnerID   string
	SortField SortField
	Ascending bool
	Page      int
	PageSize  int
}

// Offset returns the number of rows skipped before the requested page. It is
// never negative and saturates at math.MaxInt.
func (q FeedQuery) Offset() int {
	if q.Page < 1 || q.PageSize < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// CacheKey identifies the query for result caches.
func (q FeedQuery) CacheKey() string {
	dir := "desc"
	if q.Ascending {
		dir = "asc"
	}
	return fmt.Sprintf("feed:%s:%s:%s:%d:%d:%q", q.OwnerID, q.SortField, dir, q.Page, q.PageSize, q.Search)
}

// VideoPage is one page of the feed together with paging metadata.
type VideoPage struct {
	Videos      []VideoSummary `json:"docs"`
	Page        int            `json:"page"`
	PageSize    int            `json:"limit"`
	TotalItems  int64          `json:"totalDocs"`
	TotalPages  int            `json:"totalPages"`
	HasNextPage bool           `json:"hasNextPage"`
	HasPrevPage bool           `json:"hasPrevPage"`
}

// NewVideoPage fills the paging metadata for videos found at page of size over total matches.
func NewVideoPage(videos []VideoSummary, page, size int, total int64) VideoPage {
	if videos == nil {
		videos = []VideoSummary{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return VideoPage{
		Videos:      videos,
		Page:        page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}
