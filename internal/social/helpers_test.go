package social

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/backend/internal/models"
	"github.com/streamhub/backend/internal/repositories"
)

type fixture struct {
	store      *repositories.MemoryStore
	toggler    *Toggler
	guard      *Guard
	aggregator *Aggregator
	feed       *Feed
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	toggler := NewToggler(store)
	return &fixture{
		store:      store,
		toggler:    toggler,
		guard:      NewGuard(toggler, store, false),
		aggregator: NewAggregator(store, NewEngagement(store)),
		feed:       NewFeed(store),
	}
}

func (f *fixture) user(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) video(t *testing.T, owner models.User, title string, published bool, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Title:       title,
		Description: fmt.Sprintf("about %s", title),
		IsPublished: published,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, f.store.Videos().Create(context.Background(), video))
	return video
}

func (f *fixture) toggle(t *testing.T, kind models.EdgeKind, subject models.User, targetID string) ToggleState {
	t.Helper()
	result, err := f.guard.Toggle(context.Background(), kind, Viewer(subject.ID), targetID)
	require.NoError(t, err)
	return result.State
}
