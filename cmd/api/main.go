package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/clipstream/clipstream-api/internal/auth"
	"github.com/clipstream/clipstream-api/internal/channel"
	"github.com/clipstream/clipstream-api/internal/config"
	"github.com/clipstream/clipstream-api/internal/database"
	httpServer "github.com/clipstream/clipstream-api/internal/http"
	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/media"
	"github.com/clipstream/clipstream-api/internal/profile"
	"github.com/clipstream/clipstream-api/internal/ratelimit"
	"github.com/clipstream/clipstream-api/internal/subscription"
	"github.com/clipstream/clipstream-api/internal/user"
	"github.com/clipstream/clipstream-api/internal/video"
)

// @title           Clipstream API
// @version         1.0
// @description     A video sharing REST API with authentication, channel subscriptions, and watch history.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer sqlDB.Close()

	// Run pending migrations
	if err := database.Migrate(context.Background(), sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewBunDB(sqlDB)

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewBunRepository(db)
	subscriptionRepo := subscription.NewBunRepository(db)
	videoRepo := video.NewBunRepository(db)
	historyRepo := video.NewBunHistoryRepository(db)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.AccessKey, cfg.Auth.RefreshKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize media uploader
	uploader, err := media.NewS3Uploader(context.Background(), cfg.Media)
	if err != nil {
		return fmt.Errorf("failed to initialize media uploader: %w", err)
	}

	// Initialize services
	authService := auth.NewService(
		userRepo,
		pasetoService,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
	)
	channelAggregator := channel.NewAggregator(userRepo, subscriptionRepo)
	videoService := video.NewService(videoRepo, historyRepo, userRepo, logger)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth: auth.NewHandler(
			authService,
			uploader,
			rateLimiter,
			logger,
			!cfg.Server.IsDevelopment(), // isProduction
			cfg.Media.UploadTempDir,
			cfg.Media.MaxUploadBytes,
		),
		Profile: profile.NewHandler(
			userRepo,
			uploader,
			logger,
			cfg.Media.UploadTempDir,
			cfg.Media.MaxUploadBytes,
		),
		Channel: channel.NewHandler(channelAggregator, logger),
		Video:   video.NewHandler(videoService, logger),
	}
	authMiddleware := auth.NewMiddleware(authService)

	// Initialize router
	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB opens the Postgres connection pool used by both migrations and Bun
func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return sqlDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
