package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/clipstream/clipstream-api/internal/database"
)

var ErrVideoNotFound = errors.New("video not found")

// Repository is the video store consumed by the history service.
type Repository interface {
	Create(ctx context.Context, v *Video) (*Video, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Video, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Video, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// HistoryRepository persists per-user watch history rows.
type HistoryRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
	RecordWatch(ctx context.Context, userID, videoID uuid.UUID) error
}

// BunRepository handles video data persistence in Postgres
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new video into the database
func (r *BunRepository) Create(ctx context.Context, v *Video) (*Video, error) {
	dbVideo := &database.Video{
		OwnerID:         v.OwnerID,
		VideoURL:        v.VideoURL,
		ThumbnailURL:    v.ThumbnailURL,
		Title:           v.Title,
		Description:     v.Description,
		DurationSeconds: v.DurationSeconds,
		IsPublished:     v.IsPublished,
	}

	_, err := r.db.NewInsert().
		Model(dbVideo).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	return mapDBVideoToModel(dbVideo), nil
}

// GetByID retrieves a video by ID
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Video, error) {
	dbVideo := new(database.Video)
	err := r.db.NewSelect().
		Model(dbVideo).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video by id: %w", err)
	}

	return mapDBVideoToModel(dbVideo), nil
}

// GetByIDs retrieves videos for a set of IDs, keyed by ID. Missing IDs are
// simply absent from the result.
func (r *BunRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Video, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*Video{}, nil
	}

	var dbVideos []database.Video
	err := r.db.NewSelect().
		Model(&dbVideos).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get videos by ids: %w", err)
	}

	result := make(map[uuid.UUID]*Video, len(dbVideos))
	for i := range dbVideos {
		result[dbVideos[i].ID] = mapDBVideoToModel(&dbVideos[i])
	}
	return result, nil
}

// IncrementViews bumps the view counter by one
func (r *BunRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Video)(nil)).
		Set("views = views + 1").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

// BunHistoryRepository handles watch history persistence in Postgres
type BunHistoryRepository struct {
	db *bun.DB
}

func NewBunHistoryRepository(db *bun.DB) *BunHistoryRepository {
	return &BunHistoryRepository{db: db}
}

// ListByUser returns a user's history entries, most recent watch first
func (r *BunHistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	var rows []database.WatchHistoryEntry
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("watched_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			VideoID:   row.VideoID,
			WatchedAt: row.WatchedAt,
		})
	}
	return entries, nil
}

// RecordWatch upserts a history row: rewatching refreshes the timestamp
// instead of creating a duplicate entry
func (r *BunHistoryRepository) RecordWatch(ctx context.Context, userID, videoID uuid.UUID) error {
	entry := &database.WatchHistoryEntry{
		UserID:  userID,
		VideoID: videoID,
	}

	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (user_id, video_id) DO UPDATE").
		Set("watched_at = NOW()").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to record watch: %w", err)
	}

	return nil
}

// mapDBVideoToModel converts database model to domain model
func mapDBVideoToModel(dbv *database.Video) *Video {
	return &Video{
		ID:              dbv.ID,
		OwnerID:         dbv.OwnerID,
		VideoURL:        dbv.VideoURL,
		ThumbnailURL:    dbv.ThumbnailURL,
		Title:           dbv.Title,
		Description:     dbv.Description,
		DurationSeconds: dbv.DurationSeconds,
		Views:           dbv.Views,
		IsPublished:     dbv.IsPublished,
		CreatedAt:       dbv.CreatedAt,
		UpdatedAt:       dbv.UpdatedAt,
	}
}
