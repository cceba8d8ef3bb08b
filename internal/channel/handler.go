package channel

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/clipstream-api/internal/auth"
	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/subscription"
)

// Handler contains HTTP handlers for channel profiles and subscriptions
type Handler struct {
	aggregator *Aggregator
	logger     *logging.Logger
}

func NewHandler(aggregator *Aggregator, logger *logging.Logger) *Handler {
	return &Handler{aggregator: aggregator, logger: logger}
}

// GetChannelProfile returns a channel's public profile with counts
// @Summary      Channel profile
// @Description  Resolve a channel by username with subscriber counts and the viewer's subscription flag
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Channel username"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Username missing"
// @Failure      404 {object} httputil.ErrorResponse "Channel not found"
// @Router       /channels/{username} [get]
func (h *Handler) GetChannelProfile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		httputil.RespondError(w, "no username found", http.StatusBadRequest)
		return
	}

	prof, err := h.aggregator.GetChannelProfile(r.Context(), username, viewer.ID)
	if err != nil {
		if errors.Is(err, ErrChannelNotFound) {
			logger.Warn("channel profile not found", "username", username)
			httputil.RespondError(w, "channel not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to aggregate channel profile", "username", username, "error", err.Error())
		httputil.RespondError(w, "failed to fetch channel profile", http.StatusInternalServerError)
		return
	}

	httputil.RespondData(w, prof, "channel profile fetched successfully", http.StatusOK)
}

// Subscribe subscribes the viewer to a channel
// @Summary      Subscribe
// @Description  Create a subscription edge from the viewer to the channel
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Channel username"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Self-subscription"
// @Failure      404 {object} httputil.ErrorResponse "Channel not found"
// @Router       /channels/{username}/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.mutateSubscription(w, r, h.aggregator.Subscribe, "subscribed successfully")
}

// Unsubscribe removes the viewer's subscription to a channel
// @Summary      Unsubscribe
// @Description  Remove the subscription edge from the viewer to the channel
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Param        username path string true "Channel username"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Not subscribed"
// @Failure      404 {object} httputil.ErrorResponse "Channel not found"
// @Router       /channels/{username}/subscribe [delete]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.mutateSubscription(w, r, h.aggregator.Unsubscribe, "unsubscribed successfully")
}

func (h *Handler) mutateSubscription(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, username string, viewerID uuid.UUID) error,
	successMsg string,
) {
	logger := logging.GetLoggerFromContext(r.Context())

	viewer, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		httputil.RespondError(w, "no username found", http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), username, viewer.ID); err != nil {
		switch {
		case errors.Is(err, ErrChannelNotFound):
			httputil.RespondError(w, "channel not found", http.StatusNotFound)
		case errors.Is(err, subscription.ErrSelfSubscription):
			httputil.RespondError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, subscription.ErrNotSubscribed):
			httputil.RespondError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.Error("subscription mutation failed", "username", username, "error", err.Error())
			httputil.RespondError(w, "failed to update subscription", http.StatusInternalServerError)
		}
		return
	}

	logger.Info("subscription updated", "channel", username, "viewer_id", viewer.ID)

	httputil.RespondData(w, struct{}{}, successMsg, http.StatusOK)
}
