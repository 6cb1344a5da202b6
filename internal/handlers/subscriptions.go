package handlers

import (
	"net/http"

	"github.com/streamhub/backend/internal/models"
)

// SubscriptionHandler serves channel subscription toggles and listings.
type SubscriptionHandler struct {
	Toggles  Toggler
	Views    Aggregator
	Sessions SessionManager
	Limiter  RateLimiter
}

// Toggle handles POST /api/v1/subscriptions/c/{channelID}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	if !allowRequest(h.Limiter, r, "subscriptions", viewer) {
		respondJSON(ctx, w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
		return
	}

	result, err := h.Toggles.Toggle(ctx, models.EdgeSubscription, viewer, r.PathValue("channelID"))
	if err != nil {
		respondError(ctx, w, "toggle subscription", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelID}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Views.ChannelSubscribers(ctx, r.PathValue("channelID"))
	if err != nil {
		respondError(ctx, w, "list channel subscribers", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, channelListResponse{Channels: channels})
}

// Subscribed handles GET /api/v1/subscriptions/u/{subscriberID}.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Views.SubscribedChannels(ctx, r.PathValue("subscriberID"))
	if err != nil {
		respondError(ctx, w, "list subscribed channels", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, channelListResponse{Channels: channels})
}

type channelListResponse struct {
	Channels []models.ChannelSummary `json:"channels"`
}
