package video

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/user"
)

// Service resolves watch history into fully populated items and records
// new watch events.
type Service struct {
	videos  Repository
	history HistoryRepository
	users   user.Repository
	logger  *logging.Logger
}

func NewService(videos Repository, history HistoryRepository, users user.Repository, logger *logging.Logger) *Service {
	return &Service{
		videos:  videos,
		history: history,
		users:   users,
		logger:  logger,
	}
}

// GetWatchHistory returns the user's watched videos, most recent first, with
// each video's owner flattened to its public projection. Entries whose video
// has since been deleted are skipped rather than failing the whole request.
func (s *Service) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error) {
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []HistoryItem{}, nil
	}

	videoIDs := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		videoIDs = append(videoIDs, entry.VideoID)
	}

	videos, err := s.videos.GetByIDs(ctx, videoIDs)
	if err != nil {
		return nil, err
	}

	ownerIDSet := make(map[uuid.UUID]struct{}, len(videos))
	ownerIDs := make([]uuid.UUID, 0, len(videos))
	for _, v := range videos {
		if _, seen := ownerIDSet[v.OwnerID]; seen {
			continue
		}
		ownerIDSet[v.OwnerID] = struct{}{}
		ownerIDs = append(ownerIDs, v.OwnerID)
	}

	owners, err := s.users.GetByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, entry := range entries {
		v, ok := videos[entry.VideoID]
		if !ok {
			continue
		}

		item := HistoryItem{
			Video:     *v,
			WatchedAt: entry.WatchedAt,
		}
		if owner, ok := owners[v.OwnerID]; ok {
			item.Owner = Owner{
				FullName:  owner.FullName,
				Username:  owner.Username,
				AvatarURL: owner.AvatarURL,
			}
		} else {
			s.logger.WithFields(map[string]any{
				"video_id": v.ID.String(),
				"owner_id": v.OwnerID.String(),
			}).Warn("watch history video has no owner record")
		}
		items = append(items, item)
	}

	return items, nil
}

// RecordWatch appends or refreshes a history entry and bumps the video's
// view counter. Returns ErrVideoNotFound when the video does not exist.
func (s *Service) RecordWatch(ctx context.Context, userID, videoID uuid.UUID) (*Video, error) {
	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return nil, err
	}

	if err := s.history.RecordWatch(ctx, userID, videoID); err != nil {
		return nil, fmt.Errorf("failed to record watch for video %s: %w", videoID, err)
	}

	return s.videos.GetByID(ctx, videoID)
}
