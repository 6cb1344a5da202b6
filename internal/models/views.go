package models

import "time"

// OwnerSummary is the embedded channel owner shown next to a video.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// VideoSummary is a video with its owner embedded, used in listings.
type VideoSummary struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoFile"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	Owner        OwnerSummary `json:"owner"`
}

// ChannelOwner is the owner block of a video detail, enriched relative to the viewer.
type ChannelOwner struct {
	OwnerSummary
	SubscribersCount int64 `json:"subscribersCount"`
	IsSubscribed     bool  `json:"isSubscribed"`
}

// VideoDetail is the derived document returned for a single video read.
type VideoDetail struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoFile"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	Owner        ChannelOwner `json:"owner"`
	LikesCount   int64        `json:"likesCount"`
	IsLiked      bool         `json:"isLiked"`
}

// ChannelProfile is the derived document for a channel page.
type ChannelProfile struct {
	ID                       string `json:"id"`
	Username                 string `json:"username"`
	FullName                 string `json:"fullName"`
	Email                    string `json:"email"`
	AvatarURL                string `json:"avatar"`
	CoverImageURL            string `json:"coverImage"`
	SubscribersCount         int64  `json:"subscribersCount"`
	ChannelSubscribedToCount int64  `json:"channelSubscribedToCount"`
	IsSubscribed             bool   `json:"isSubscribed"`
}

// ChannelSummary is one row of a subscriber or subscription listing.
type ChannelSummary struct {
	OwnerSummary
	SubscribedAt time.Time `json:"subscribedAt"`
}

// ChannelStats aggregates dashboard totals for one owner.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}
