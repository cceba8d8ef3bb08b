package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Media    MediaConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins for cookie auth
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// Distinct PASETO symmetric keys for access and refresh tokens
	// (must be 32 bytes each for v4.local)
	AccessKey            []byte
	RefreshKey           []byte
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

type MediaConfig struct {
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
	PublicBaseURL  string // base URL media objects are served from
	UploadTempDir  string // staging directory for multipart uploads
	MaxUploadBytes int64
}

// Load reads configuration from environment variables.
// Call godotenv.Load() before this if using .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "clipstream"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			AccessKey:            []byte(getEnv("PASETO_ACCESS_KEY", "")),
			RefreshKey:           []byte(getEnv("PASETO_REFRESH_KEY", "")),
			AccessTokenDuration:  getDurationEnv("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getDurationEnv("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
		},
		Media: MediaConfig{
			S3Endpoint:     getEnv("S3_ENDPOINT", ""),
			S3Region:       getEnv("AWS_REGION", "us-east-1"),
			S3Bucket:       getEnv("S3_BUCKET_NAME", "clipstream-media"),
			S3AccessKey:    getEnv("AWS_ACCESS_KEY_ID", ""),
			S3SecretKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3UsePathStyle: getEnv("S3_USE_PATH_STYLE", "") == "true",
			PublicBaseURL:  getEnv("MEDIA_PUBLIC_BASE_URL", ""),
			UploadTempDir:  getEnv("UPLOAD_TEMP_DIR", os.TempDir()),
			MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 32<<20)),
		},
	}

	// Validate PASETO key lengths (must be 32 bytes for v4.local)
	if len(cfg.Auth.AccessKey) != 32 {
		return nil, fmt.Errorf("PASETO_ACCESS_KEY must be exactly 32 bytes, got %d", len(cfg.Auth.AccessKey))
	}
	if len(cfg.Auth.RefreshKey) != 32 {
		return nil, fmt.Errorf("PASETO_REFRESH_KEY must be exactly 32 bytes, got %d", len(cfg.Auth.RefreshKey))
	}
	// Access tokens must never verify under the refresh key or vice versa
	if string(cfg.Auth.AccessKey) == string(cfg.Auth.RefreshKey) {
		return nil, fmt.Errorf("PASETO_ACCESS_KEY and PASETO_REFRESH_KEY must differ")
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
