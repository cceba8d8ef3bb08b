package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/clipstream/clipstream-api/internal/auth"
	"github.com/clipstream/clipstream-api/internal/channel"
	"github.com/clipstream/clipstream-api/internal/config"
	"github.com/clipstream/clipstream-api/internal/httputil"
	"github.com/clipstream/clipstream-api/internal/jokes"
	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/profile"
	"github.com/clipstream/clipstream-api/internal/video"
)

// Handlers bundles the HTTP handlers wired into the router.
type Handlers struct {
	Auth    *auth.Handler
	Profile *profile.Handler
	Channel *channel.Handler
	Video   *video.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)               // Security headers on all responses
	r.Use(middleware.Recoverer)          // Recover from panics
	r.Use(middleware.RequestID)          // Add request ID
	r.Use(middleware.RealIP)             // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses

	// Public routes
	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		log.Println("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		log.Println("Swagger UI disabled (production mode)")
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/jokes", jokes.List)

		r.Route("/v1", func(r chi.Router) {
			// Public user routes
			r.Route("/users", func(r chi.Router) {
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
				r.Post("/refresh-token", h.Auth.Refresh)

				// Protected user routes
				r.Group(func(r chi.Router) {
					r.Use(authMiddleware.RequireAuth)
					r.Post("/logout", h.Auth.Logout)
					r.Post("/change-password", h.Auth.ChangePassword)
					r.Get("/me", h.Profile.GetCurrentUser)
					r.Patch("/me", h.Profile.UpdateDetails)
					r.Patch("/me/avatar", h.Profile.UpdateAvatar)
					r.Patch("/me/cover-image", h.Profile.UpdateCoverImage)
					r.Get("/me/watch-history", h.Video.GetWatchHistory)
				})
			})

			// Channel routes (require authentication for the viewer flag)
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Get("/channels/{username}", h.Channel.GetChannelProfile)
				r.Post("/channels/{username}/subscribe", h.Channel.Subscribe)
				r.Delete("/channels/{username}/subscribe", h.Channel.Unsubscribe)
				r.Post("/videos/{videoID}/watch", h.Video.RecordWatch)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.APIResponse
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondData(w, map[string]string{"status": "api is running"}, "ok", http.StatusOK)
}
