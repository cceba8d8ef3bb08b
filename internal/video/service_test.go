package video

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/user"
)

// fakeVideos is an in-memory video store.
type fakeVideos struct {
	videos map[uuid.UUID]*Video
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{videos: make(map[uuid.UUID]*Video)}
}

func (f *fakeVideos) Create(ctx context.Context, v *Video) (*Video, error) {
	stored := *v
	stored.ID = uuid.New()
	f.videos[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeVideos) GetByID(ctx context.Context, id uuid.UUID) (*Video, error) {
	if v, ok := f.videos[id]; ok {
		return v, nil
	}
	return nil, ErrVideoNotFound
}

func (f *fakeVideos) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Video, error) {
	result := make(map[uuid.UUID]*Video)
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			result[id] = v
		}
	}
	return result, nil
}

func (f *fakeVideos) IncrementViews(ctx context.Context, id uuid.UUID) error {
	v, ok := f.videos[id]
	if !ok {
		return ErrVideoNotFound
	}
	v.Views++
	return nil
}

// fakeHistory is an in-memory watch history store.
type fakeHistory struct {
	entries map[uuid.UUID][]HistoryEntry // keyed by user
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{entries: make(map[uuid.UUID][]HistoryEntry)}
}

func (f *fakeHistory) ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	return f.entries[userID], nil
}

func (f *fakeHistory) RecordWatch(ctx context.Context, userID, videoID uuid.UUID) error {
	now := time.Now()
	for i, entry := range f.entries[userID] {
		if entry.VideoID == videoID {
			f.entries[userID][i].WatchedAt = now
			return nil
		}
	}
	// Prepend so the list stays most-recent-first like the real query
	f.entries[userID] = append([]HistoryEntry{{VideoID: videoID, WatchedAt: now}}, f.entries[userID]...)
	return nil
}

// fakeOwners implements only the batch lookup the service needs.
type fakeOwners struct {
	user.Repository
	byID map[uuid.UUID]*user.User
}

func (f *fakeOwners) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	result := make(map[uuid.UUID]*user.User)
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func testOwner(username string) *user.User {
	return &user.User{
		ID:        uuid.New(),
		Username:  username,
		FullName:  "Owner " + username,
		AvatarURL: "https://media.example.com/" + username + ".png",
	}
}

func addVideo(t *testing.T, videos *fakeVideos, ownerID uuid.UUID, title string) *Video {
	t.Helper()
	v, err := videos.Create(context.Background(), &Video{
		OwnerID:      ownerID,
		VideoURL:     "https://media.example.com/" + title + ".mp4",
		ThumbnailURL: "https://media.example.com/" + title + ".jpg",
		Title:        title,
		Description:  "about " + title,
		IsPublished:  true,
	})
	require.NoError(t, err)
	return v
}

func TestGetWatchHistory_Empty(t *testing.T) {
	svc := NewService(newFakeVideos(), newFakeHistory(), &fakeOwners{byID: map[uuid.UUID]*user.User{}}, logging.NewLogger(true))

	items, err := svc.GetWatchHistory(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestGetWatchHistory_ResolvesOwners(t *testing.T) {
	videos := newFakeVideos()
	history := newFakeHistory()
	owner := testOwner("alice")
	owners := &fakeOwners{byID: map[uuid.UUID]*user.User{owner.ID: owner}}
	svc := NewService(videos, history, owners, logging.NewLogger(true))

	first := addVideo(t, videos, owner.ID, "first")
	second := addVideo(t, videos, owner.ID, "second")

	viewer := uuid.New()
	require.NoError(t, history.RecordWatch(context.Background(), viewer, first.ID))
	require.NoError(t, history.RecordWatch(context.Background(), viewer, second.ID))

	items, err := svc.GetWatchHistory(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Most recent watch first
	require.Equal(t, "second", items[0].Title)
	require.Equal(t, "first", items[1].Title)

	for _, item := range items {
		require.Equal(t, "alice", item.Owner.Username)
		require.Equal(t, "Owner alice", item.Owner.FullName)
		require.Equal(t, owner.AvatarURL, item.Owner.AvatarURL)
	}
}

func TestGetWatchHistory_SkipsDeletedVideos(t *testing.T) {
	videos := newFakeVideos()
	history := newFakeHistory()
	owner := testOwner("alice")
	owners := &fakeOwners{byID: map[uuid.UUID]*user.User{owner.ID: owner}}
	svc := NewService(videos, history, owners, logging.NewLogger(true))

	kept := addVideo(t, videos, owner.ID, "kept")
	removed := addVideo(t, videos, owner.ID, "removed")

	viewer := uuid.New()
	require.NoError(t, history.RecordWatch(context.Background(), viewer, kept.ID))
	require.NoError(t, history.RecordWatch(context.Background(), viewer, removed.ID))

	delete(videos.videos, removed.ID)

	items, err := svc.GetWatchHistory(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "kept", items[0].Title)
}

func TestRecordWatch_BumpsViews(t *testing.T) {
	videos := newFakeVideos()
	history := newFakeHistory()
	owner := testOwner("alice")
	owners := &fakeOwners{byID: map[uuid.UUID]*user.User{owner.ID: owner}}
	svc := NewService(videos, history, owners, logging.NewLogger(true))

	v := addVideo(t, videos, owner.ID, "clip")
	viewer := uuid.New()

	got, err := svc.RecordWatch(context.Background(), viewer, v.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Views)

	// Rewatching refreshes the entry instead of duplicating it
	got, err = svc.RecordWatch(context.Background(), viewer, v.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.Views)

	items, err := svc.GetWatchHistory(context.Background(), viewer)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestRecordWatch_UnknownVideo(t *testing.T) {
	svc := NewService(newFakeVideos(), newFakeHistory(), &fakeOwners{byID: map[uuid.UUID]*user.User{}}, logging.NewLogger(true))

	_, err := svc.RecordWatch(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrVideoNotFound)
}
