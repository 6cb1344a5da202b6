package handlers

import (
	"context"
	"net/http"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Ready: deps.Ready}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	subscriptions := SubscriptionHandler{Toggles: deps.Toggles, Views: deps.Views, Sessions: deps.Sessions, Limiter: deps.Limiter}
	likes := LikeHandler{Toggles: deps.Toggles, Views: deps.Views, Sessions: deps.Sessions, Limiter: deps.Limiter}
	videos := VideoHandler{Feed: deps.Feed, Views: deps.Views, Publisher: deps.Publisher, Sessions: deps.Sessions}
	users := UserHandler{Views: deps.Views, Sessions: deps.Sessions}
	dashboard := DashboardHandler{Views: deps.Views, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/readyz", health.Readiness)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/auth/password-reset", auth.RequestPasswordReset)

	mux.HandleFunc("POST /api/v1/subscriptions/c/{channelID}", subscriptions.Toggle)
	mux.HandleFunc("GET /api/v1/subscriptions/c/{channelID}", subscriptions.Subscribers)
	mux.HandleFunc("GET /api/v1/subscriptions/u/{subscriberID}", subscriptions.Subscribed)

	mux.HandleFunc("POST /api/v1/likes/toggle/v/{videoID}", likes.ToggleVideo)
	mux.HandleFunc("POST /api/v1/likes/toggle/c/{commentID}", likes.ToggleComment)
	mux.HandleFunc("POST /api/v1/likes/toggle/t/{tweetID}", likes.ToggleTweet)
	mux.HandleFunc("GET /api/v1/likes/videos", likes.Liked)

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.HandleFunc("POST /api/v1/videos", videos.Publish)
	mux.HandleFunc("GET /api/v1/videos/{videoID}", videos.Detail)
	mux.HandleFunc("PATCH /api/v1/videos/toggle/publish/{videoID}", videos.TogglePublish)

	mux.HandleFunc("GET /api/v1/users/c/{username}", users.Channel)
	mux.HandleFunc("GET /api/v1/users/history", users.History)

	mux.HandleFunc("GET /api/v1/dashboard/stats", dashboard.Stats)
	mux.HandleFunc("GET /api/v1/dashboard/videos", dashboard.Videos)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users     UserStore
	Sessions  SessionManager
	Toggles   Toggler
	Views     Aggregator
	Feed      FeedLister
	Publisher Publisher
	Limiter   RateLimiter
	Metrics   http.Handler
	Ready     func(ctx context.Context) error
}
