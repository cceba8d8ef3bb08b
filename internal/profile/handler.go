package profile

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clipstream/clipstream-api/internal/auth"
	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/media"
	"github.com/clipstream/clipstream-api/internal/user"
)

// Handler contains HTTP handlers for the authenticated user's own profile
type Handler struct {
	users          user.Repository
	uploader       media.Uploader
	validate       *validator.Validate
	logger         *logging.Logger
	uploadTempDir  string
	maxUploadBytes int64
}

func NewHandler(users user.Repository, uploader media.Uploader, logger *logging.Logger, uploadTempDir string, maxUploadBytes int64) *Handler {
	return &Handler{
		users:          users,
		uploader:       uploader,
		validate:       validator.New(),
		logger:         logger,
		uploadTempDir:  uploadTempDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// UpdateDetailsRequest represents the profile details update body
type UpdateDetailsRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// GetCurrentUser returns the authenticated user's profile
// @Summary      Current user
// @Description  Return the profile of the authenticated user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.APIResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /users/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	httputil.RespondData(w, current, "current user fetched successfully", http.StatusOK)
}

// UpdateDetails updates the mutable profile fields
// @Summary      Update profile details
// @Description  Update full name and email of the authenticated user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UpdateDetailsRequest true "New details"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      409 {object} httputil.ErrorResponse "Email already taken"
// @Router       /users/me [patch]
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	var req UpdateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update details request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondError(w, "all fields are required", http.StatusBadRequest)
		return
	}

	updated, err := h.users.UpdateDetails(r.Context(), current.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUser) {
			logger.Warn("details update failed: email already taken")
			httputil.RespondError(w, "email already taken", http.StatusConflict)
			return
		}
		logger.Error("details update failed", "error", err.Error())
		httputil.RespondError(w, "failed to update details", http.StatusInternalServerError)
		return
	}

	logger.Info("profile details updated", "user_id", current.ID)

	httputil.RespondData(w, updated, "details updated successfully", http.StatusOK)
}

// UpdateAvatar replaces the avatar image
// @Summary      Update avatar
// @Description  Upload a new avatar image for the authenticated user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Avatar file missing or upload failed"
// @Router       /users/me/avatar [patch]
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar", "avatar updated successfully", h.users.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image
// @Summary      Update cover image
// @Description  Upload a new cover image for the authenticated user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage formData file true "Cover image"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Cover image file missing or upload failed"
// @Router       /users/me/cover-image [patch]
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "coverImage", "cover image updated successfully", h.users.UpdateCoverImage)
}

// updateMedia is the shared flow for single-file media updates: stage the
// multipart file, upload it, persist the new URL.
func (h *Handler) updateMedia(
	w http.ResponseWriter,
	r *http.Request,
	field, successMsg string,
	persist func(ctx context.Context, id uuid.UUID, url string) (*user.User, error),
) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := auth.CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		logger.Warn("invalid media update form", "error", err.Error())
		httputil.RespondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		logger.Warn("media update failed: file missing", "field", field)
		httputil.RespondError(w, field+" file is missing", http.StatusBadRequest)
		return
	}

	url, err := h.uploadStaged(r, headers[0])
	if err != nil {
		logger.Error("media upload failed", "field", field, "error", err.Error())
		httputil.RespondError(w, "error while uploading "+field, http.StatusBadRequest)
		return
	}

	updated, err := persist(r.Context(), current.ID, url)
	if err != nil {
		logger.Error("media update failed", "field", field, "error", err.Error())
		httputil.RespondError(w, "failed to update "+field, http.StatusInternalServerError)
		return
	}

	logger.Info("profile media updated", "user_id", current.ID, "field", field)

	httputil.RespondData(w, updated, successMsg, http.StatusOK)
}

// uploadStaged stages a multipart file locally and hands it to the uploader.
// The uploader removes the staged file on both outcomes.
func (h *Handler) uploadStaged(r *http.Request, fh *multipart.FileHeader) (string, error) {
	localPath, err := media.StageFile(h.uploadTempDir, fh)
	if err != nil {
		return "", err
	}
	return h.uploader.Upload(r.Context(), localPath)
}
