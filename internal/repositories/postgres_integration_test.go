package repositories

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamhub/backend/internal/auth"
	"github.com/streamhub/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func requireDatabase(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("integration test skipped in short mode")
	}
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Username:  "alice",
		Email:     "alice@example.com",
		FullName:  "Alice",
		Password:  "secret-hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := models.User{
		ID:        uuid.NewString(),
		Username:  "alice2",
		Email:     user.Email,
		Password:  "another-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != user.Username || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	fetched, err = repo.FindByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if fetched.ID != user.ID {
		t.Fatalf("unexpected user fetched by username: %+v", fetched)
	}

	if _, err := repo.FindByUsername(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		Token:     uuid.NewString(),
		Kind:      auth.TokenRefresh,
		UserID:    user.ID,
		ExpiresAt: expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.Token)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}

	if loaded.UserID != session.UserID || loaded.Kind != auth.TokenRefresh || !timesClose(loaded.ExpiresAt, expires.UTC(), time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	updated := session
	updated.ExpiresAt = expires.Add(48 * time.Hour)
	if err := store.Save(ctx, updated); err != nil {
		t.Fatalf("update session: %v", err)
	}

	loaded, err = store.Find(ctx, session.Token)
	if err != nil {
		t.Fatalf("find session after update: %v", err)
	}

	if !timesClose(loaded.ExpiresAt, updated.ExpiresAt.UTC(), time.Millisecond) {
		t.Fatalf("expected updated expiry, got %v", loaded.ExpiresAt)
	}

	if err := store.Delete(ctx, session.Token); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := store.Find(ctx, session.Token); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}

	if err := store.Delete(ctx, session.Token); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresVideoRepository_TogglePublished(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	owner := createTestUser(t, userRepo, "owner")
	other := createTestUser(t, userRepo, "other")
	video := createTestVideo(t, videoRepo, owner, "draft", false, time.Now().UTC())

	published, err := videoRepo.TogglePublished(ctx, video.ID, owner.ID)
	if err != nil {
		t.Fatalf("toggle publish: %v", err)
	}
	if !published {
		t.Fatal("expected video to be published after toggle")
	}

	if _, err := videoRepo.TogglePublished(ctx, video.ID, other.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if _, err := videoRepo.TogglePublished(ctx, uuid.NewString(), owner.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRelationStore_EdgesAndProfile(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	store := NewPostgresRelationStore(testPool)
	channel := createTestUser(t, userRepo, "channel")
	subscriber := createTestUser(t, userRepo, "subscriber")

	key := models.EdgeKey{Kind: models.EdgeSubscription, SubjectID: subscriber.ID, TargetID: channel.ID}
	if err := store.InsertEdge(ctx, key, time.Now().UTC()); err != nil {
		t.Fatalf("insert edge: %v", err)
	}
	if err := store.InsertEdge(ctx, key, time.Now().UTC()); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate edge, got %v", err)
	}

	exists, err := store.EdgeExists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("expected edge to exist, got %v (err %v)", exists, err)
	}

	profile, err := store.ChannelProfile(ctx, "channel", subscriber.ID)
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.SubscribersCount != 1 || !profile.IsSubscribed || profile.ChannelSubscribedToCount != 0 {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	anonymous, err := store.ChannelProfile(ctx, "channel", "")
	if err != nil {
		t.Fatalf("anonymous channel profile: %v", err)
	}
	if anonymous.IsSubscribed {
		t.Fatal("anonymous viewer must not be subscribed")
	}

	removed, err := store.DeleteEdge(ctx, key)
	if err != nil || !removed {
		t.Fatalf("expected edge removal, got %v (err %v)", removed, err)
	}

	if _, err := store.ChannelProfile(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown channel, got %v", err)
	}
}

func TestPostgresRelationStore_ConcurrentInsert(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	store := NewPostgresRelationStore(testPool)
	owner := createTestUser(t, userRepo, "owner")
	fan := createTestUser(t, userRepo, "fan")
	video := createTestVideo(t, videoRepo, owner, "popular", true, time.Now().UTC())

	key := models.EdgeKey{Kind: models.EdgeLikeVideo, SubjectID: fan.ID, TargetID: video.ID}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		inserted  int
		conflicts int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InsertEdge(ctx, key, time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	if inserted != 1 || conflicts != 7 {
		t.Fatalf("expected exactly one insert to win, got %d inserts and %d conflicts", inserted, conflicts)
	}
}

func TestPostgresRelationStore_VideoDetailAndEngagement(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	store := NewPostgresRelationStore(testPool)
	owner := createTestUser(t, userRepo, "owner")
	viewer := createTestUser(t, userRepo, "viewer")
	video := createTestVideo(t, videoRepo, owner, "clip", true, time.Now().UTC())

	for _, u := range []models.User{viewer, createTestUser(t, userRepo, "fan")} {
		key := models.EdgeKey{Kind: models.EdgeLikeVideo, SubjectID: u.ID, TargetID: video.ID}
		if err := store.InsertEdge(ctx, key, time.Now().UTC()); err != nil {
			t.Fatalf("insert like: %v", err)
		}
	}
	subscription := models.EdgeKey{Kind: models.EdgeSubscription, SubjectID: viewer.ID, TargetID: owner.ID}
	if err := store.InsertEdge(ctx, subscription, time.Now().UTC()); err != nil {
		t.Fatalf("insert subscription: %v", err)
	}

	detail, err := store.VideoDetail(ctx, video.ID, viewer.ID)
	if err != nil {
		t.Fatalf("video detail: %v", err)
	}
	if detail.LikesCount != 2 || !detail.IsLiked || detail.Owner.SubscribersCount != 1 || !detail.Owner.IsSubscribed {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	for range 2 {
		if err := store.IncrementViews(ctx, video.ID); err != nil {
			t.Fatalf("increment views: %v", err)
		}
		if err := store.AddToWatchHistory(ctx, viewer.ID, video.ID); err != nil {
			t.Fatalf("add to watch history: %v", err)
		}
	}

	history, err := store.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 1 || history[0].ID != video.ID || history[0].Views != 2 {
		t.Fatalf("unexpected history: %+v", history)
	}

	if err := store.IncrementViews(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound incrementing unknown video, got %v", err)
	}
	if err := store.AddToWatchHistory(ctx, uuid.NewString(), video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user history, got %v", err)
	}

	liked, err := store.LikedVideos(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("liked videos: %v", err)
	}
	if len(liked) != 1 || liked[0].Owner.ID != owner.ID {
		t.Fatalf("unexpected liked videos: %+v", liked)
	}
}

func TestPostgresRelationStore_ChannelStats(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	store := NewPostgresRelationStore(testPool)
	owner := createTestUser(t, userRepo, "owner")

	first := createTestVideo(t, videoRepo, owner, "first", true, time.Now().UTC())
	second := createTestVideo(t, videoRepo, owner, "second", false, time.Now().UTC())
	bumpViews(t, store, first.ID, 5)
	bumpViews(t, store, second.ID, 7)

	fans := make([]models.User, 0, 3)
	for i := range 3 {
		fan := createTestUser(t, userRepo, fmt.Sprintf("fan%d", i))
		fans = append(fans, fan)
		key := models.EdgeKey{Kind: models.EdgeSubscription, SubjectID: fan.ID, TargetID: owner.ID}
		if err := store.InsertEdge(ctx, key, time.Now().UTC()); err != nil {
			t.Fatalf("insert subscription: %v", err)
		}
	}
	likes := []models.EdgeKey{
		{Kind: models.EdgeLikeVideo, SubjectID: fans[0].ID, TargetID: first.ID},
		{Kind: models.EdgeLikeVideo, SubjectID: fans[1].ID, TargetID: first.ID},
		{Kind: models.EdgeLikeVideo, SubjectID: fans[0].ID, TargetID: second.ID},
		{Kind: models.EdgeLikeVideo, SubjectID: fans[2].ID, TargetID: second.ID},
	}
	for _, key := range likes {
		if err := store.InsertEdge(ctx, key, time.Now().UTC()); err != nil {
			t.Fatalf("insert like: %v", err)
		}
	}

	stats, err := store.ChannelStats(ctx, owner.ID)
	if err != nil {
		t.Fatalf("channel stats: %v", err)
	}
	want := models.ChannelStats{TotalVideos: 2, TotalViews: 12, TotalSubscribers: 3, TotalLikes: 4}
	if stats != want {
		t.Fatalf("expected %+v, got %+v", want, stats)
	}

	if _, err := store.ChannelStats(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}
}

func TestPostgresRelationStore_ListPublished(t *testing.T) {
	requireDatabase(t)
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	videoRepo := NewPostgresVideoRepository(testPool)
	store := NewPostgresRelationStore(testPool)
	owner := createTestUser(t, userRepo, "owner")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 25 {
		createTestVideo(t, videoRepo, owner, fmt.Sprintf("video %02d", i), true, base.Add(time.Duration(i)*time.Minute))
	}
	createTestVideo(t, videoRepo, owner, "100% draft", false, base.Add(time.Hour))

	page, err := store.ListPublished(ctx, models.FeedQuery{SortField: models.SortByCreatedAt, Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(page.Videos) != 10 || page.TotalPages != 3 || page.TotalItems != 25 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
	if page.Videos[0].Title != "video 14" || page.Videos[9].Title != "video 05" {
		t.Fatalf("unexpected page contents: first %q last %q", page.Videos[0].Title, page.Videos[9].Title)
	}

	page, err = store.ListPublished(ctx, models.FeedQuery{Search: "100%", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list published with search: %v", err)
	}
	if len(page.Videos) != 0 {
		t.Fatalf("expected unpublished video to be excluded, got %+v", page.Videos)
	}
}

func bumpViews(t *testing.T, store *PostgresRelationStore, videoID string, n int) {
	t.Helper()
	for range n {
		if err := store.IncrementViews(context.Background(), videoID); err != nil {
			t.Fatalf("increment views: %v", err)
		}
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, subscriptions, comments, tweets, videos, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, owner models.User, title string, published bool, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Title:       title,
		VideoURL:    "https://media.example.com/" + title,
		IsPublished: published,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
