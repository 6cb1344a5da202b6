package social

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type recordingEngagementStore struct {
	viewsErr   error
	historyErr error
	views      []string
	history    [][2]string
}

func (s *recordingEngagementStore) IncrementViews(_ context.Context, videoID string) error {
	s.views = append(s.views, videoID)
	return s.viewsErr
}

func (s *recordingEngagementStore) AddToWatchHistory(_ context.Context, userID, videoID string) error {
	s.history = append(s.history, [2]string{userID, videoID})
	return s.historyErr
}

func TestEngagementApply(t *testing.T) {
	store := &recordingEngagementStore{}
	engagement := NewEngagement(store)
	viewer := Viewer(uuid.NewString())
	videoID := uuid.NewString()

	assert.NoError(t, engagement.Apply(context.Background(), videoID, viewer))
	assert.Equal(t, []string{videoID}, store.views)
	assert.Equal(t, [][2]string{{viewer.ID(), videoID}}, store.history)
}

func TestEngagementAnonymousIsNoop(t *testing.T) {
	store := &recordingEngagementStore{}
	engagement := NewEngagement(store)

	assert.NoError(t, engagement.Apply(context.Background(), uuid.NewString(), Anonymous))
	assert.Empty(t, store.views)
	assert.Empty(t, store.history)
}

func TestEngagementAttemptsBothWrites(t *testing.T) {
	viewsErr := errors.New("views down")
	historyErr := errors.New("history down")

	store := &recordingEngagementStore{viewsErr: viewsErr}
	err := NewEngagement(store).Apply(context.Background(), uuid.NewString(), Viewer(uuid.NewString()))
	assert.ErrorIs(t, err, viewsErr)
	assert.Len(t, store.history, 1, "history is written even when the view counter fails")

	store = &recordingEngagementStore{viewsErr: viewsErr, historyErr: historyErr}
	err = NewEngagement(store).Apply(context.Background(), uuid.NewString(), Viewer(uuid.NewString()))
	assert.ErrorIs(t, err, viewsErr)
	assert.ErrorIs(t, err, historyErr)
}
