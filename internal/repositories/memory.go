package repositories

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/streamhub/backend/internal/models"
)

// MemoryStore is an in-process relation store used by tests and local development.
// It answers every query the PostgreSQL stores answer, with the same sentinels.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[string]models.User
	videos        map[string]models.Video
	comments      map[string]models.Comment
	tweets        map[string]models.Tweet
	subscriptions map[models.EdgeKey]time.Time
	likes         map[models.EdgeKey]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		videos:        make(map[string]models.Video),
		comments:      make(map[string]models.Comment),
		tweets:        make(map[string]models.Tweet),
		subscriptions: make(map[models.EdgeKey]time.Time),
		likes:         make(map[models.EdgeKey]time.Time),
	}
}

// Users exposes the store through the UserRepository contract.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Videos exposes the store through the VideoRepository contract.
func (s *MemoryStore) Videos() VideoRepository { return memoryVideos{s} }

type memoryUsers struct{ s *MemoryStore }

func (u memoryUsers) Create(_ context.Context, user models.User) error {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrConflict
		}
	}
	user.WatchHistory = slices.Clone(user.WatchHistory)
	s.users[user.ID] = user
	return nil
}

func (u memoryUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	return u.s.findUser(func(user models.User) bool { return user.Email == email })
}

func (u memoryUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	return u.s.findUser(func(user models.User) bool { return user.Username == username })
}

func (s *MemoryStore) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			user.WatchHistory = slices.Clone(user.WatchHistory)
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

type memoryVideos struct{ s *MemoryStore }

func (v memoryVideos) Create(_ context.Context, video models.Video) error {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (v memoryVideos) TogglePublished(_ context.Context, videoID, ownerID string) (bool, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return false, ErrNotFound
	}
	if video.OwnerID != ownerID {
		return false, ErrNotOwner
	}
	video.IsPublished = !video.IsPublished
	video.UpdatedAt = time.Now().UTC()
	s.videos[videoID] = video
	return video.IsPublished, nil
}

// CreateComment adds a comment so it can be the target of likes.
func (s *MemoryStore) CreateComment(comment models.Comment) {
	s.mu.Lock()
	s.comments[comment.ID] = comment
	s.mu.Unlock()
}

// CreateTweet adds a tweet so it can be the target of likes.
func (s *MemoryStore) CreateTweet(tweet models.Tweet) {
	s.mu.Lock()
	s.tweets[tweet.ID] = tweet
	s.mu.Unlock()
}

// DeleteVideo removes a video without touching the edges or histories that reference it.
func (s *MemoryStore) DeleteVideo(videoID string) {
	s.mu.Lock()
	delete(s.videos, videoID)
	s.mu.Unlock()
}

// DeleteUser removes a user without touching the edges or videos that reference it.
func (s *MemoryStore) DeleteUser(userID string) {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()
}

// EdgeCount reports how many stored edges share the uniqueness key of key:
// (subscriber, channel) for subscriptions and (likedBy, target) across every like
// kind. Used by tests to check uniqueness.
func (s *MemoryStore) EdgeCount(key models.EdgeKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for existing := range s.edgeSet(key.Kind) {
		if existing.SubjectID == key.SubjectID && existing.TargetID == key.TargetID {
			count++
		}
	}
	return count
}

func (s *MemoryStore) edgeSet(kind models.EdgeKind) map[models.EdgeKey]time.Time {
	if kind == models.EdgeSubscription {
		return s.subscriptions
	}
	return s.likes
}

// EdgeExists reports whether the edge identified by key is present.
func (s *MemoryStore) EdgeExists(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.edgeSet(key.Kind)[key]
	return ok, nil
}

// InsertEdge creates the edge, failing with ErrConflict when it is already present.
// Likes are unique per (likedBy, target) across target kinds.
func (s *MemoryStore) InsertEdge(_ context.Context, key models.EdgeKey, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.edgeSet(key.Kind)
	if key.Kind != models.EdgeSubscription {
		for existing := range set {
			if existing.SubjectID == key.SubjectID && existing.TargetID == key.TargetID {
				return ErrConflict
			}
		}
	}
	if _, ok := set[key]; ok {
		return ErrConflict
	}
	set[key] = at
	return nil
}

// DeleteEdge removes the edge and reports whether it existed.
func (s *MemoryStore) DeleteEdge(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.edgeSet(key.Kind)
	if _, ok := set[key]; !ok {
		return false, nil
	}
	delete(set, key)
	return true, nil
}

// TargetExists reports whether the entity an edge of kind would point at exists.
func (s *MemoryStore) TargetExists(_ context.Context, kind models.EdgeKind, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ok bool
	switch kind {
	case models.EdgeSubscription:
		_, ok = s.users[id]
	case models.EdgeLikeVideo:
		_, ok = s.videos[id]
	case models.EdgeLikeComment:
		_, ok = s.comments[id]
	case models.EdgeLikeTweet:
		_, ok = s.tweets[id]
	}
	return ok, nil
}

func (s *MemoryStore) subscriberCount(channelID string) int64 {
	var n int64
	for key := range s.subscriptions {
		if key.TargetID == channelID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) subscribed(viewerID, channelID string) bool {
	if viewerID == "" {
		return false
	}
	_, ok := s.subscriptions[models.EdgeKey{Kind: models.EdgeSubscription, SubjectID: viewerID, TargetID: channelID}]
	return ok
}

func (s *MemoryStore) videoLikes(videoID string) int64 {
	var n int64
	for key := range s.likes {
		if key.Kind == models.EdgeLikeVideo && key.TargetID == videoID {
			n++
		}
	}
	return n
}

func ownerSummary(user models.User) models.OwnerSummary {
	return models.OwnerSummary{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

// summarize embeds the owner; ok is false when the owner no longer exists.
func (s *MemoryStore) summarize(video models.Video) (models.VideoSummary, bool) {
	owner, ok := s.users[video.OwnerID]
	if !ok {
		return models.VideoSummary{}, false
	}
	return models.VideoSummary{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
		Owner:        ownerSummary(owner),
	}, true
}

// ChannelProfile resolves a channel by username and derives its subscription facts.
func (s *MemoryStore) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username != username {
			continue
		}
		var subscribedTo int64
		for key := range s.subscriptions {
			if key.SubjectID == user.ID {
				subscribedTo++
			}
		}
		return models.ChannelProfile{
			ID:                       user.ID,
			Username:                 user.Username,
			FullName:                 user.FullName,
			Email:                    user.Email,
			AvatarURL:                user.AvatarURL,
			CoverImageURL:            user.CoverImageURL,
			SubscribersCount:         s.subscriberCount(user.ID),
			ChannelSubscribedToCount: subscribedTo,
			IsSubscribed:             s.subscribed(viewerID, user.ID),
		}, nil
	}
	return models.ChannelProfile{}, ErrNotFound
}

// VideoDetail derives the detail document for videoID relative to viewerID.
func (s *MemoryStore) VideoDetail(_ context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[videoID]
	if !ok {
		return models.VideoDetail{}, ErrNotFound
	}
	owner, ok := s.users[video.OwnerID]
	if !ok {
		return models.VideoDetail{}, ErrNotFound
	}

	liked := false
	if viewerID != "" {
		_, liked = s.likes[models.EdgeKey{Kind: models.EdgeLikeVideo, SubjectID: viewerID, TargetID: videoID}]
	}

	return models.VideoDetail{
		ID:           video.ID,
		Title:        video.Title,
		Description:  video.Description,
		VideoURL:     video.VideoURL,
		ThumbnailURL: video.ThumbnailURL,
		Duration:     video.Duration,
		Views:        video.Views,
		IsPublished:  video.IsPublished,
		CreatedAt:    video.CreatedAt,
		Owner: models.ChannelOwner{
			OwnerSummary:     ownerSummary(owner),
			SubscribersCount: s.subscriberCount(owner.ID),
			IsSubscribed:     s.subscribed(viewerID, owner.ID),
		},
		LikesCount: s.videoLikes(videoID),
		IsLiked:    liked,
	}, nil
}

// LikedVideos lists videos liked by userID, newest like first.
func (s *MemoryStore) LikedVideos(_ context.Context, userID string) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type liked struct {
		summary models.VideoSummary
		at      time.Time
	}
	var found []liked
	for key, at := range s.likes {
		if key.Kind != models.EdgeLikeVideo || key.SubjectID != userID {
			continue
		}
		video, ok := s.videos[key.TargetID]
		if !ok {
			continue
		}
		summary, ok := s.summarize(video)
		if !ok {
			continue
		}
		found = append(found, liked{summary: summary, at: at})
	}
	slices.SortFunc(found, func(a, b liked) int {
		if c := b.at.Compare(a.at); c != 0 {
			return c
		}
		return cmp.Compare(a.summary.ID, b.summary.ID)
	})

	videos := make([]models.VideoSummary, 0, len(found))
	for _, f := range found {
		videos = append(videos, f.summary)
	}
	return videos, nil
}

// WatchHistory returns the user's watched videos in stored order.
func (s *MemoryStore) WatchHistory(_ context.Context, userID string) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}

	videos := make([]models.VideoSummary, 0, len(user.WatchHistory))
	for _, id := range user.WatchHistory {
		video, ok := s.videos[id]
		if !ok {
			continue
		}
		if summary, ok := s.summarize(video); ok {
			videos = append(videos, summary)
		}
	}
	return videos, nil
}

// ChannelStats aggregates dashboard totals for ownerID.
func (s *MemoryStore) ChannelStats(_ context.Context, ownerID string) (models.ChannelStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[ownerID]; !ok {
		return models.ChannelStats{}, ErrNotFound
	}

	owned := make(map[string]struct{})
	var stats models.ChannelStats
	for _, video := range s.videos {
		if video.OwnerID != ownerID {
			continue
		}
		owned[video.ID] = struct{}{}
		stats.TotalVideos++
		stats.TotalViews += video.Views
	}
	stats.TotalSubscribers = s.subscriberCount(ownerID)
	for key := range s.likes {
		if key.Kind != models.EdgeLikeVideo {
			continue
		}
		if _, ok := owned[key.TargetID]; ok {
			stats.TotalLikes++
		}
	}
	return stats, nil
}

// ChannelVideos lists every video owned by ownerID, newest first.
func (s *MemoryStore) ChannelVideos(_ context.Context, ownerID string) ([]models.VideoSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := []models.VideoSummary{}
	for _, video := range s.videos {
		if video.OwnerID != ownerID {
			continue
		}
		if summary, ok := s.summarize(video); ok {
			videos = append(videos, summary)
		}
	}
	slices.SortFunc(videos, func(a, b models.VideoSummary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return videos, nil
}

// ChannelSubscribers lists the users subscribed to channelID, newest first.
func (s *MemoryStore) ChannelSubscribers(_ context.Context, channelID string) ([]models.ChannelSummary, error) {
	return s.listChannels(channelID, func(key models.EdgeKey) (string, bool) {
		return key.SubjectID, key.TargetID == channelID
	})
}

// SubscribedChannels lists the channels subscriberID follows, newest first.
func (s *MemoryStore) SubscribedChannels(_ context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	return s.listChannels(subscriberID, func(key models.EdgeKey) (string, bool) {
		return key.TargetID, key.SubjectID == subscriberID
	})
}

func (s *MemoryStore) listChannels(userID string, pick func(models.EdgeKey) (string, bool)) ([]models.ChannelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, ErrNotFound
	}

	channels := []models.ChannelSummary{}
	for key, at := range s.subscriptions {
		id, ok := pick(key)
		if !ok {
			continue
		}
		user, ok := s.users[id]
		if !ok {
			continue
		}
		channels = append(channels, models.ChannelSummary{OwnerSummary: ownerSummary(user), SubscribedAt: at})
	}
	slices.SortFunc(channels, func(a, b models.ChannelSummary) int {
		if c := b.SubscribedAt.Compare(a.SubscribedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return channels, nil
}

// ListPublished filters, sorts, joins and paginates published videos in that order.
func (s *MemoryStore) ListPublished(_ context.Context, q models.FeedQuery) (models.VideoPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var matched []models.Video
	for _, video := range s.videos {
		if !video.IsPublished {
			continue
		}
		if q.OwnerID != "" && video.OwnerID != q.OwnerID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(video.Title), search) &&
			!strings.Contains(strings.ToLower(video.Description), search) {
			continue
		}
		matched = append(matched, video)
	}

	slices.SortFunc(matched, func(a, b models.Video) int {
		c := compareFeed(q.SortField, a, b)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !q.Ascending {
			c = -c
		}
		return c
	})

	joined := make([]models.VideoSummary, 0, len(matched))
	for _, video := range matched {
		if summary, ok := s.summarize(video); ok {
			joined = append(joined, summary)
		}
	}

	total := int64(len(joined))
	start := max(0, min(q.Offset(), len(joined)))
	end := max(start, min(start+max(q.PageSize, 0), len(joined)))

	return models.NewVideoPage(slices.Clone(joined[start:end]), q.Page, q.PageSize, total), nil
}

func compareFeed(field models.SortField, a, b models.Video) int {
	switch field {
	case models.SortByViews:
		return cmp.Compare(a.Views, b.Views)
	case models.SortByDuration:
		return cmp.Compare(a.Duration, b.Duration)
	case models.SortByTitle:
		return cmp.Compare(a.Title, b.Title)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// IncrementViews bumps the view counter by one.
func (s *MemoryStore) IncrementViews(_ context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[videoID]
	if !ok {
		return ErrNotFound
	}
	video.Views++
	s.videos[videoID] = video
	return nil
}

// AddToWatchHistory appends videoID to the user's history unless it is already present.
func (s *MemoryStore) AddToWatchHistory(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if slices.Contains(user.WatchHistory, videoID) {
		return nil
	}
	user.WatchHistory = append(slices.Clone(user.WatchHistory), videoID)
	s.users[userID] = user
	return nil
}

// Video returns a copy of the stored video. Used by tests to observe counters.
func (s *MemoryStore) Video(videoID string) (models.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	video, ok := s.videos[videoID]
	return video, ok
}

// User returns a copy of the stored user. Used by tests to observe watch history.
func (s *MemoryStore) User(userID string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	user.WatchHistory = slices.Clone(user.WatchHistory)
	return user, ok
}
