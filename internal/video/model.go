package video

import (
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"ownerId"`
	VideoURL        string    `json:"videoFile"`
	ThumbnailURL    string    `json:"thumbnail"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds float64   `json:"duration"`
	Views           int64     `json:"views"`
	IsPublished     bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Owner is the public projection of a video's owner embedded in
// watch-history responses
type Owner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// HistoryEntry is one row of a user's watch history before resolution
type HistoryEntry struct {
	VideoID   uuid.UUID
	WatchedAt time.Time
}

// HistoryItem is a fully resolved watch-history element: the video with its
// owner flattened to the public projection
type HistoryItem struct {
	Video
	Owner     Owner     `json:"owner"`
	WatchedAt time.Time `json:"watchedAt"`
}
