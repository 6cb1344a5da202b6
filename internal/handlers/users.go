package handlers

import "net/http"

// UserHandler serves channel profiles and the watch history of the viewer.
type UserHandler struct {
	Views    Aggregator
	Sessions SessionManager
}

// Channel handles GET /api/v1/users/c/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := viewerFromRequest(w, r, h.Sessions)
	if !ok {
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, r.PathValue("username"), viewer)
	if err != nil {
		respondError(ctx, w, "channel profile", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// History handles GET /api/v1/users/history.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	history, err := h.Views.WatchHistory(ctx, viewer)
	if err != nil {
		respondError(ctx, w, "watch history", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: history})
}
