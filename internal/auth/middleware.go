package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	// CurrentUserContextKey holds the authenticated *user.User
	CurrentUserContextKey ContextKey = "current_user"
)

// AccessVerifier verifies an access token and resolves the user it names
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	verifier AccessVerifier
}

func NewMiddleware(verifier AccessVerifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth validates the access token from the Authorization header or the
// access cookie. Any failure terminates the request with 401; the wrapped
// handler only ever runs with an identity attached.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		// Priority 1: Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			} else {
				httputil.RespondError(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}
		}

		// Priority 2: Cookie (fallback)
		if token == "" {
			cookieToken, err := GetAccessTokenFromCookie(r)
			if err != nil {
				httputil.RespondError(w, "missing authentication", http.StatusUnauthorized)
				return
			}
			token = cookieToken
		}

		current, err := m.verifier.VerifyAccess(r.Context(), token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondError(w, "token has expired", http.StatusUnauthorized)
				return
			}
			httputil.RespondError(w, "invalid access token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), CurrentUserContextKey, current)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser extracts the authenticated user from the request context
func CurrentUser(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(CurrentUserContextKey).(*user.User)
	return u, ok
}
