package video

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/clipstream-api/internal/auth"
	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/logging"
)

// Handler contains HTTP handlers for watch history
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// GetWatchHistory returns the viewer's watch history
// @Summary      Watch history
// @Description  List the viewer's watched videos, most recent first, with owner details
// @Tags         videos
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.APIResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /users/me/watch-history [get]
func (h *Handler) GetWatchHistory(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	items, err := h.service.GetWatchHistory(r.Context(), viewer.ID)
	if err != nil {
		logger.Error("failed to resolve watch history", "user_id", viewer.ID, "error", err.Error())
		httputil.RespondError(w, "failed to fetch watch history", http.StatusInternalServerError)
		return
	}

	httputil.RespondData(w, items, "watch history fetched successfully", http.StatusOK)
}

// RecordWatch registers a watch event for the viewer
// @Summary      Record watch
// @Description  Add or refresh a watch history entry and increment the view count
// @Tags         videos
// @Produce      json
// @Security     BearerAuth
// @Param        videoID path string true "Video ID"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Malformed video ID"
// @Failure      404 {object} httputil.ErrorResponse "Video not found"
// @Router       /videos/{videoID}/watch [post]
func (h *Handler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	videoID, err := uuid.Parse(chi.URLParam(r, "videoID"))
	if err != nil {
		httputil.RespondError(w, "invalid video id", http.StatusBadRequest)
		return
	}

	v, err := h.service.RecordWatch(r.Context(), viewer.ID, videoID)
	if err != nil {
		if errors.Is(err, ErrVideoNotFound) {
			httputil.RespondError(w, "video not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to record watch", "video_id", videoID, "error", err.Error())
		httputil.RespondError(w, "failed to record watch", http.StatusInternalServerError)
		return
	}

	logger.Info("watch recorded", "video_id", videoID, "user_id", viewer.ID)

	httputil.RespondData(w, v, "watch recorded successfully", http.StatusOK)
}
