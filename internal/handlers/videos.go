package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/streamhub/backend/internal/models"
	"github.com/streamhub/backend/internal/social"
	"github.com/streamhub/backend/internal/videos"
)

const maxUploadMemory = 32 << 20

// VideoHandler provides the feed, video detail and publishing endpoints.
type VideoHandler struct {
	Feed      FeedLister
	Views     Aggregator
	Publisher Publisher
	Sessions  SessionManager
}

// List handles GET /api/v1/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	q, err := social.ParseFeedQuery(social.FeedParams{
		Query:    params.Get("query"),
		UserID:   params.Get("userId"),
		SortBy:   params.Get("sortBy"),
		SortType: params.Get("sortType"),
		Page:     params.Get("page"),
		Limit:    params.Get("limit"),
	})
	if err != nil {
		respondError(ctx, w, "parse feed query", err)
		return
	}

	page, err := h.Feed.ListVideos(ctx, q)
	if err != nil {
		respondError(ctx, w, "list videos", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, page)
}

// Detail handles GET /api/v1/videos/{videoID}. Authenticated viewers get a view
// recorded and the video appended to their watch history.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := viewerFromRequest(w, r, h.Sessions)
	if !ok {
		return
	}

	detail, err := h.Views.VideoDetail(ctx, r.PathValue("videoID"), viewer)
	if err != nil {
		respondError(ctx, w, "video detail", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, detail)
}

// Publish handles multipart POST /api/v1/videos.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := videos.PublishRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		duration, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "duration must be a number"})
			return
		}
		req.Duration = duration
	}

	video, closeVideo, err := formUpload(r, "videoFile")
	if err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoFile is required"})
		return
	}
	defer closeVideo()
	req.Video = video

	if thumbnail, closeThumbnail, err := formUpload(r, "thumbnail"); err == nil {
		defer closeThumbnail()
		req.Thumbnail = thumbnail
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid thumbnail"})
		return
	}

	created, err := h.Publisher.Publish(ctx, viewer, req)
	if err != nil {
		respondError(ctx, w, "publish video", err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, videoResponse{Video: created})
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoID}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx, viewer, ok := requireViewer(w, r, h.Sessions)
	if !ok {
		return
	}

	published, err := h.Publisher.TogglePublish(ctx, r.PathValue("videoID"), viewer)
	if err != nil {
		respondError(ctx, w, "toggle publish", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"isPublished": published})
}

func formUpload(r *http.Request, field string) (videos.Upload, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return videos.Upload{}, nil, err
	}
	return videos.Upload{Name: header.Filename, Body: file}, func() { _ = file.Close() }, nil
}

type videoResponse struct {
	Video models.Video `json:"video"`
}
