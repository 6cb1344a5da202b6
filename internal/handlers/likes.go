package handlers

import (
	"net/http"

	"github.com/streamhub/backend/internal/models"
)

// LikeHandler serves like toggles on videos, comments and tweets, and the
// liked-videos listing of the viewer.
type LikeHandler struct {
	Toggles  Toggler
	Views    Aggregator
	Sessions SessionManager
	Limiter  RateLimiter
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoID}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeLikeVideo, r.PathValue("videoID"))
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentID}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeLikeComment, r.PathValue("commentID"))
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetID}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.EdgeLikeTweet, r.PathValue("tweetID"))
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.EdgeKind, targetID string) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	if !allowRequest(h.Limiter, r, "likes", viewer) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	result, err := h.Toggles.Toggle(ctx, kind, viewer, targetID)
	if err != nil {
		respondError(ctx, w, "toggle "+string(kind), err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Liked handles GET /api/v1/likes/videos.
func (h LikeHandler) Liked(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	liked, err := h.Views.LikedVideos(ctx, viewer)
	if err != nil {
		respondError(ctx, w, "list liked videos", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: liked})
}

type videoListResponse struct {
	Videos []models.VideoSummary `json:"videos"`
}
