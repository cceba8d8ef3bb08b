package auth

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/media"
	"github.com/clipstream/clipstream-api/internal/user"
)

// IPRateLimiter is the per-IP budget consulted by the public auth endpoints
type IPRateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service        *Service
	uploader       media.Uploader
	rateLimiter    IPRateLimiter
	validate       *validator.Validate
	logger         *logging.Logger
	isProduction   bool
	uploadTempDir  string
	maxUploadBytes int64
}

func NewHandler(
	service *Service,
	uploader media.Uploader,
	rateLimiter IPRateLimiter,
	logger *logging.Logger,
	isProduction bool,
	uploadTempDir string,
	maxUploadBytes int64,
) *Handler {
	return &Handler{
		service:        service,
		uploader:       uploader,
		rateLimiter:    rateLimiter,
		validate:       validator.New(),
		logger:         logger,
		isProduction:   isProduction,
		uploadTempDir:  uploadTempDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterForm represents the multipart registration fields
type RegisterForm struct {
	FullName string `validate:"required"`
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// LoginResponse is the login payload: the profile plus the fresh pair
type LoginResponse struct {
	User         *user.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account from multipart form data. Avatar file is required, cover image is optional.
// @Tags         auth
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName   formData string true  "Full name"
// @Param        username   formData string true  "Unique username"
// @Param        email      formData string true  "Email address"
// @Param        password   formData string true  "Password"
// @Param        avatar     formData file   true  "Avatar image"
// @Param        coverImage formData file   false "Cover image"
// @Success      201 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields or avatar"
// @Failure      409 {object} httputil.ErrorResponse "Username or email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		httputil.RespondError(w, "too many requests, please try again later", http.StatusTooManyRequests)
		return
	}
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		logger.Warn("invalid registration form", "error", err.Error())
		httputil.RespondError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	form := RegisterForm{
		FullName: strings.TrimSpace(r.FormValue("fullName")),
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(form); err != nil {
		logger.Warn("registration failed: validation error", "error", err.Error())
		httputil.RespondError(w, "all fields are required", http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": form.Username})

	// Avatar is mandatory regardless of the other fields
	avatarHeaders := r.MultipartForm.File["avatar"]
	if len(avatarHeaders) == 0 {
		logger.Warn("registration failed: avatar file missing")
		httputil.RespondError(w, "avatar file is required", http.StatusBadRequest)
		return
	}

	// Cover image is optional; a failed cover upload is tolerated
	var coverImageURL *string
	if coverHeaders := r.MultipartForm.File["coverImage"]; len(coverHeaders) > 0 {
		if url, err := h.uploadStaged(r, coverHeaders[0]); err != nil {
			logger.Warn("cover image upload failed, continuing without it", "error", err.Error())
		} else {
			coverImageURL = &url
		}
	}

	avatarURL, err := h.uploadStaged(r, avatarHeaders[0])
	if err != nil {
		logger.Error("avatar upload failed", "error", err.Error())
		httputil.RespondError(w, "failed to upload avatar", http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		FullName:      form.FullName,
		Username:      form.Username,
		Email:         form.Email,
		Password:      form.Password,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUser) {
			logger.Warn("registration failed: user already exists")
			httputil.RespondError(w, "user already exists", http.StatusConflict)
			return
		}
		if isValidationErr(err) {
			logger.Warn("registration failed: validation error", "error", err.Error())
			httputil.RespondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to register user", http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondData(w, newUser, "user registered successfully", http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate by username or email; sets auth cookies and returns the token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondError(w, "too many requests, please try again later", http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" && req.Email == "" {
		httputil.RespondError(w, "either username or email is required", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondError(w, "password is required", http.StatusBadRequest)
		return
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	loggedIn, pair, err := h.service.Login(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("login failed: user not found")
			httputil.RespondError(w, "user not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondError(w, "invalid username, email or password", http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to login", http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.isProduction,
		h.service.AccessTokenDuration(), h.service.RefreshTokenDuration())

	httputil.RespondData(w, LoginResponse{
		User:         loggedIn,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully", http.StatusOK)
}

// Refresh handles access token refresh with rotation
// @Summary      Refresh the token pair
// @Description  Rotate a refresh token (from body or cookie) into a new access/refresh pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token"
// @Success      200 {object} httputil.APIResponse
// @Failure      401 {object} httputil.ErrorResponse "Missing, invalid, expired or reused refresh token"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/refresh-token [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Try the JSON body first, then fall back to the cookie
	var refreshToken string
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		if cookieToken, err := GetRefreshTokenFromCookie(r); err == nil {
			refreshToken = cookieToken
		}
	}
	refreshToken = strings.TrimSpace(refreshToken)

	if refreshToken == "" {
		logger.Warn("refresh token missing from both body and cookie")
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	_, pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenReuseDetected):
			logger.Warn("token refresh failed: reuse detected, session revoked")
			httputil.RespondError(w, "refresh token is expired or already used", http.StatusUnauthorized)
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
			logger.Warn("token refresh failed: invalid or expired token", "error", err.Error())
			httputil.RespondError(w, "invalid refresh token", http.StatusUnauthorized)
		default:
			logger.Error("token refresh failed: internal error", "error", err.Error())
			httputil.RespondError(w, "failed to refresh token", http.StatusInternalServerError)
		}
		return
	}

	logger.Info("access token refreshed successfully")

	SetAuthCookies(w, pair.AccessToken, pair.RefreshToken, h.isProduction,
		h.service.AccessTokenDuration(), h.service.RefreshTokenDuration())

	httputil.RespondData(w, pair, "access token refreshed", http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the session fingerprint and auth cookies
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} httputil.APIResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /users/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), current); err != nil {
		logger.Error("logout failed", "error", err.Error())
		httputil.RespondError(w, "failed to logout", http.StatusInternalServerError)
		return
	}

	ClearAuthCookies(w)

	logger.Info("user logged out successfully", "user_id", current.ID)

	httputil.RespondData(w, struct{}{}, "user logged out successfully", http.StatusOK)
}

// ChangePassword handles password change for the authenticated user
// @Summary      Change password
// @Description  Verify the old password and replace it with a new one
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Old and new password"
// @Success      200 {object} httputil.APIResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing fields"
// @Failure      401 {object} httputil.ErrorResponse "Old password incorrect"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /users/change-password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	current, ok := CurrentUser(r.Context())
	if !ok {
		httputil.RespondError(w, "unauthorized request", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password request body", "error", err.Error())
		httputil.RespondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondError(w, "old and new password are required", http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), current, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("password change failed: old password incorrect")
			httputil.RespondError(w, "invalid password", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			httputil.RespondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Error("password change failed: internal error", "error", err.Error())
		httputil.RespondError(w, "failed to change password", http.StatusInternalServerError)
		return
	}

	logger.Info("password changed successfully", "user_id", current.ID)

	httputil.RespondData(w, struct{}{}, "password changed successfully", http.StatusOK)
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

func isValidationErr(err error) bool {
	return errors.Is(err, ErrFullNameRequired) ||
		errors.Is(err, ErrUsernameRequired) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrInvalidEmailFormat)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
