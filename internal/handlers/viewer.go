package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/streamhub/backend/internal/auth"
	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/social"
)

var errMalformedAuthorization = errors.New("malformed authorization header")

// resolveViewer maps the bearer token of r onto a viewer. A request without an
// Authorization header is anonymous.
func resolveViewer(ctx context.Context, r *http.Request, sessions SessionManager) (social.Viewer, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return social.Anonymous, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return social.Anonymous, errMalformedAuthorization
	}
	if sessions == nil {
		return social.Anonymous, auth.ErrSessionNotFound
	}

	userID, err := sessions.Authenticate(ctx, token)
	if err != nil {
		return social.Anonymous, err
	}
	return social.ParseViewer(userID)
}

// viewerFromRequest resolves the viewer and answers 401 when the credentials are
// present but unusable. The resolved viewer is attached to the request logger.
func viewerFromRequest(w http.ResponseWriter, r *http.Request, sessions SessionManager) (context.Context, social.Viewer, bool) {
	ctx := r.Context()
	viewer, err := resolveViewer(ctx, r, sessions)
	if err != nil {
		logging.FromContext(ctx).Warn("viewer authentication failed", "error", err)
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired access token"})
		return ctx, social.Anonymous, false
	}
	return logging.WithViewer(ctx, viewer.ID()), viewer, true
}

// requireViewer is viewerFromRequest for endpoints that need a concrete identity.
func requireViewer(w http.ResponseWriter, r *http.Request, sessions SessionManager) (context.Context, social.Viewer, bool) {
	ctx, viewer, ok := viewerFromRequest(w, r, sessions)
	if !ok {
		return ctx, social.Anonymous, false
	}
	if viewer.IsAnonymous() {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return ctx, social.Anonymous, false
	}
	return ctx, viewer, true
}
