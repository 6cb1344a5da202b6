package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/streamhub/backend/internal/logging"
	"github.com/streamhub/backend/internal/social"
	"github.com/streamhub/backend/internal/videos"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, social.ErrInvalidReference),
		errors.Is(err, social.ErrSelfSubscription),
		errors.Is(err, videos.ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, social.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, social.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, social.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, videos.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error(operation+" failed", "error", err)
		message = "internal server error"
	}
	respondJSON(ctx, w, status, map[string]string{"error": message})
}
