package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row. RefreshTokenHash holds the SHA-256 fingerprint
// of the single currently valid refresh token (nil when logged out).
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Username         string     `bun:"username,notnull"`
	Email            string     `bun:"email,notnull"`
	FullName         string     `bun:"full_name,notnull"`
	AvatarURL        string     `bun:"avatar_url,notnull"`
	CoverImageURL    *string    `bun:"cover_image_url"`
	PasswordHash     string     `bun:"password_hash,notnull"`
	RefreshTokenHash *string    `bun:"refresh_token_hash"`
	CreatedAt        time.Time  `bun:"created_at,notnull,default:now()"`
	UpdatedAt        time.Time  `bun:"updated_at,notnull,default:now()"`
}

// Subscription is a directed edge: subscriber follows channel.
type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SubscriberID uuid.UUID `bun:"subscriber_id,notnull,type:uuid"`
	ChannelID    uuid.UUID `bun:"channel_id,notnull,type:uuid"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:now()"`
}

// Video is the videos table row.
type Video struct {
	bun.BaseModel `bun:"table:videos"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OwnerID         uuid.UUID `bun:"owner_id,notnull,type:uuid"`
	VideoURL        string    `bun:"video_url,notnull"`
	ThumbnailURL    string    `bun:"thumbnail_url,notnull"`
	Title           string    `bun:"title,notnull"`
	Description     string    `bun:"description,notnull"`
	DurationSeconds float64   `bun:"duration_seconds,notnull"`
	Views           int64     `bun:"views,notnull,default:0"`
	IsPublished     bool      `bun:"is_published,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:now()"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:now()"`
}

// WatchHistoryEntry records that a user watched a video. One row per
// (user, video) pair; re-watching refreshes WatchedAt.
type WatchHistoryEntry struct {
	bun.BaseModel `bun:"table:watch_history"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	VideoID   uuid.UUID `bun:"video_id,notnull,type:uuid"`
	WatchedAt time.Time `bun:"watched_at,notnull,default:now()"`
}
