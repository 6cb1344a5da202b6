package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/streamhub/backend/internal/auth"
	"github.com/streamhub/backend/internal/feedcache"
	"github.com/streamhub/backend/internal/models"
	"github.com/streamhub/backend/internal/repositories"
	"github.com/streamhub/backend/internal/social"
	"github.com/streamhub/backend/internal/videos"
)

type testServer struct {
	mux      *http.ServeMux
	store    *repositories.MemoryStore
	sessions *auth.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repositories.NewMemoryStore()
	sessions := newTestManager()
	toggler := social.NewToggler(store)
	feed := feedcache.New(store, feedcache.NewMemoryBackend(), time.Minute)

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:     store.Users(),
		Sessions:  sessions,
		Toggles:   social.NewGuard(toggler, store, false),
		Views:     social.NewAggregator(store, social.NewEngagement(store)),
		Feed:      social.NewFeed(feed),
		Publisher: videos.NewPublisher(nil, store.Videos(), feed),
	})

	return &testServer{mux: mux, store: store, sessions: sessions}
}

func (s *testServer) user(t *testing.T, username string) (models.User, string) {
	t.Helper()
	user := models.User{ID: uuid.NewString(), Username: username, Email: username + "@example.com", FullName: username, CreatedAt: time.Now().UTC()}
	if err := s.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	tokens, err := s.sessions.Issue(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return user, tokens.AccessToken
}

func (s *testServer) video(t *testing.T, owner models.User, title string, published bool) models.Video {
	t.Helper()
	video := models.Video{ID: uuid.NewString(), OwnerID: owner.ID, Title: title, IsPublished: published, Views: 3, CreatedAt: time.Now().UTC()}
	if err := s.store.Videos().Create(context.Background(), video); err != nil {
		t.Fatalf("create video: %v", err)
	}
	return video
}

func (s *testServer) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestSubscriptionToggleRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceToken := srv.user(t, "alice")
	bob, _ := srv.user(t, "bob")

	path := "/api/v1/subscriptions/c/" + bob.ID

	rec := srv.do(t, http.MethodPost, path, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d: %s", rec.Code, rec.Body)
	}
	if got := decode[social.ToggleResult](t, rec); got.State != social.StateAdded {
		t.Fatalf("expected added, got %q", got.State)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/users/c/BOB", aliceToken)
	profile := decode[models.ChannelProfile](t, rec)
	if profile.SubscribersCount != 1 || !profile.IsSubscribed {
		t.Fatalf("unexpected profile after subscribe: %+v", profile)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/subscriptions/c/"+bob.ID, "")
	subscribers := decode[channelListResponse](t, rec)
	if len(subscribers.Channels) != 1 || subscribers.Channels[0].ID != alice.ID {
		t.Fatalf("unexpected subscribers: %+v", subscribers)
	}

	rec = srv.do(t, http.MethodPost, path, aliceToken)
	if got := decode[social.ToggleResult](t, rec); got.State != social.StateRemoved {
		t.Fatalf("expected removed, got %q", got.State)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/users/c/bob", "")
	profile = decode[models.ChannelProfile](t, rec)
	if profile.SubscribersCount != 0 || profile.IsSubscribed {
		t.Fatalf("unexpected profile after unsubscribe: %+v", profile)
	}
}

func TestToggleStatusMapping(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceToken := srv.user(t, "alice")

	cases := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"anonymous", "/api/v1/likes/toggle/v/" + uuid.NewString(), "", http.StatusUnauthorized},
		{"badToken", "/api/v1/likes/toggle/v/" + uuid.NewString(), "not-a-token", http.StatusUnauthorized},
		{"malformedID", "/api/v1/likes/toggle/v/not-a-uuid", aliceToken, http.StatusBadRequest},
		{"missingVideo", "/api/v1/likes/toggle/v/" + uuid.NewString(), aliceToken, http.StatusNotFound},
		{"missingComment", "/api/v1/likes/toggle/c/" + uuid.NewString(), aliceToken, http.StatusNotFound},
		{"selfSubscription", "/api/v1/subscriptions/c/" + alice.ID, aliceToken, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, tc.path, tc.token)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d got %d: %s", tc.wantStatus, rec.Code, rec.Body)
			}
		})
	}
}

func TestVideoDetailAppliesEngagement(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := srv.user(t, "owner")
	_, viewerToken := srv.user(t, "viewer")
	video := srv.video(t, owner, "clip", true)

	rec := srv.do(t, http.MethodPost, "/api/v1/likes/toggle/v/"+video.ID, viewerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("like: expected 200 got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/videos/"+video.ID, viewerToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail: expected 200 got %d", rec.Code)
	}
	detail := decode[models.VideoDetail](t, rec)
	if detail.LikesCount != 1 || !detail.IsLiked || detail.Owner.Username != "owner" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	stored, _ := srv.store.Video(video.ID)
	if stored.Views != 4 {
		t.Fatalf("expected one view recorded, got %d", stored.Views)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/users/history", viewerToken)
	history := decode[videoListResponse](t, rec)
	if len(history.Videos) != 1 || history.Videos[0].ID != video.ID {
		t.Fatalf("unexpected history: %+v", history)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/likes/videos", viewerToken)
	liked := decode[videoListResponse](t, rec)
	if len(liked.Videos) != 1 {
		t.Fatalf("unexpected liked videos: %+v", liked)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/videos/"+video.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous detail: expected 200 got %d", rec.Code)
	}
	stored, _ = srv.store.Video(video.ID)
	if stored.Views != 4 {
		t.Fatalf("anonymous read must not record a view, got %d", stored.Views)
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/videos/"+uuid.NewString(), ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown video, got %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/api/v1/users/history", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous history, got %d", rec.Code)
	}
}

func TestVideoListRoute(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := srv.user(t, "owner")
	for i := range 12 {
		srv.video(t, owner, fmt.Sprintf("video %02d", i), true)
	}
	srv.video(t, owner, "draft", false)

	rec := srv.do(t, http.MethodGet, "/api/v1/videos?page=2&limit=5&sortBy=title&sortType=asc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	page := decode[models.VideoPage](t, rec)
	if page.TotalItems != 12 || page.TotalPages != 3 || len(page.Videos) != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Videos[0].Title != "video 05" {
		t.Fatalf("expected title order, got %q first", page.Videos[0].Title)
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/videos?userId=nope", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed owner id, got %d", rec.Code)
	}
}

func TestVideoListDropsUnpublishedVideo(t *testing.T) {
	srv := newTestServer(t)
	owner, ownerToken := srv.user(t, "owner")
	video := srv.video(t, owner, "launch", true)

	page := decode[models.VideoPage](t, srv.do(t, http.MethodGet, "/api/v1/videos", ""))
	if len(page.Videos) != 1 || page.Videos[0].ID != video.ID {
		t.Fatalf("expected the published video to be listed, got %+v", page)
	}

	rec := srv.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, ownerToken)
	if got := decode[map[string]bool](t, rec); got["isPublished"] {
		t.Fatalf("expected video to be unpublished, got %v", got)
	}

	page = decode[models.VideoPage](t, srv.do(t, http.MethodGet, "/api/v1/videos", ""))
	if len(page.Videos) != 0 || page.TotalItems != 0 {
		t.Fatalf("expected unpublished video to leave the listing, got %+v", page)
	}

	srv.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+video.ID, ownerToken)
	page = decode[models.VideoPage](t, srv.do(t, http.MethodGet, "/api/v1/videos", ""))
	if len(page.Videos) != 1 {
		t.Fatalf("expected republished video to return, got %+v", page)
	}
}

func TestDashboardRoutes(t *testing.T) {
	srv := newTestServer(t)
	owner, ownerToken := srv.user(t, "owner")
	fan, fanToken := srv.user(t, "fan")
	srv.video(t, owner, "public", true)
	draft := srv.video(t, owner, "draft", false)

	srv.do(t, http.MethodPost, "/api/v1/subscriptions/c/"+owner.ID, fanToken)
	srv.do(t, http.MethodPost, "/api/v1/likes/toggle/v/"+draft.ID, fanToken)

	rec := srv.do(t, http.MethodGet, "/api/v1/dashboard/stats", ownerToken)
	stats := decode[models.ChannelStats](t, rec)
	if stats != (models.ChannelStats{TotalVideos: 2, TotalViews: 6, TotalSubscribers: 1, TotalLikes: 1}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/dashboard/videos", ownerToken)
	owned := decode[videoListResponse](t, rec)
	if len(owned.Videos) != 2 {
		t.Fatalf("expected owner to see drafts, got %+v", owned)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/subscriptions/u/"+fan.ID, "")
	subscribed := decode[channelListResponse](t, rec)
	if len(subscribed.Channels) != 1 || subscribed.Channels[0].ID != owner.ID {
		t.Fatalf("unexpected subscribed channels: %+v", subscribed)
	}

	rec = srv.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+draft.ID, fanToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner publish toggle, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPatch, "/api/v1/videos/toggle/publish/"+draft.ID, ownerToken)
	if got := decode[map[string]bool](t, rec); !got["isPublished"] {
		t.Fatalf("expected draft to be published, got %v", got)
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/dashboard/stats", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous dashboard, got %d", rec.Code)
	}
}
