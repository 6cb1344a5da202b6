package models

import "time"

// EdgeKind identifies which relation a toggle operates on.
type EdgeKind string

const (
	EdgeSubscription EdgeKind = "subscription"
	EdgeLikeVideo    EdgeKind = "like-video"
	EdgeLikeComment  EdgeKind = "like-comment"
	EdgeLikeTweet    EdgeKind = "like-tweet"
)

// Valid reports whether k is one of the known edge kinds.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeSubscription, EdgeLikeVideo, EdgeLikeComment, EdgeLikeTweet:
		return true
	}
	return false
}

// LikeTarget returns the like target kind for like edges. ok is false for subscriptions.
func (k EdgeKind) LikeTarget() (target LikeTargetKind, ok bool) {
	switch k {
	case EdgeLikeVideo:
		return LikeTargetVideo, true
	case EdgeLikeComment:
		return LikeTargetComment, true
	case EdgeLikeTweet:
		return LikeTargetTweet, true
	}
	return "", false
}

// LikeTargetKind tags the entity a like edge points at.
type LikeTargetKind string

const (
	LikeTargetVideo   LikeTargetKind = "video"
	LikeTargetComment LikeTargetKind = "comment"
	LikeTargetTweet   LikeTargetKind = "tweet"
)

// EdgeKey is the composite identity of a subscription or like edge.
// For subscriptions SubjectID is the subscriber and TargetID the channel;
// for likes SubjectID is the liking user and TargetID the liked entity.
type EdgeKey struct {
	Kind      EdgeKind
	SubjectID string
	TargetID  string
}

// Subscription records that Subscriber follows Channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Like records that LikedBy likes a single target of TargetKind.
type Like struct {
	LikedBy    string
	TargetID   string
	TargetKind LikeTargetKind
	CreatedAt  time.Time
}
