package handlers

import "net/http"

// DashboardHandler serves the statistics and video list of the viewer's own channel.
type DashboardHandler struct {
	Views    Aggregator
	Sessions SessionManager
}

// Stats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	stats, err := h.Views.ChannelStats(ctx, viewer.ID())
	if err != nil {
		respondError(ctx, w, "channel stats", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats)
}

// Videos handles GET /api/v1/dashboard/videos.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	owned, err := h.Views.ChannelVideos(ctx, viewer.ID())
	if err != nil {
		respondError(ctx, w, "channel videos", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Videos: owned})
}
