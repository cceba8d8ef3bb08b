package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/clipstream-api/internal/database"
)

func newMockRepo(t *testing.T) (*BunRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewBunRepository(database.NewBunDB(sqlDB)), mock
}

func userColumns() []string {
	return []string{
		"id", "username", "email", "full_name", "avatar_url",
		"cover_image_url", "password_hash", "refresh_token_hash",
		"created_at", "updated_at",
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(id, "alice", "alice@example.com", "Alice Liddell",
				"https://media.example.com/a.png", nil, "hash", nil, now, now))

	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "alice", u.Username)
	require.Nil(t, u.RefreshTokenHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername_NormalizesInput(t *testing.T) {
	repo, mock := newMockRepo(t)

	id := uuid.New()
	now := time.Now()
	// The query must carry the lowercased, trimmed username
	mock.ExpectQuery(`SELECT (.+) FROM "users" (.+)username = 'alice'`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(id, "alice", "alice@example.com", "Alice Liddell",
				"https://media.example.com/a.png", nil, "hash", nil, now, now))

	u, err := repo.GetByUsername(context.Background(), "  Alice ")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsernameOrEmail_EmptyArguments(t *testing.T) {
	repo, _ := newMockRepo(t)

	// No query is issued when both identifiers are empty
	_, err := repo.GetByUsernameOrEmail(context.Background(), "", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByIDs_Empty(t *testing.T) {
	repo, _ := newMockRepo(t)

	result, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestUpdatePassword_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), uuid.New(), "newhash")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE "users" (.+)password_hash = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), uuid.New(), "newhash")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRefreshFingerprint_ClearAndSet(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "users" (.+)refresh_token_hash = (.+)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	fp := "abc123"
	require.NoError(t, repo.SetRefreshFingerprint(context.Background(), id, &fp))

	mock.ExpectExec(`UPDATE "users" (.+)refresh_token_hash = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetRefreshFingerprint(context.Background(), id, nil))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDs_MapsRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	first := uuid.New()
	second := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM "users" (.+)id IN \(`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(first, "alice", "alice@example.com", "Alice", "a.png", nil, "h", nil, now, now).
			AddRow(second, "bob", "bob@example.com", "Bob", "b.png", nil, "h", nil, now, now))

	result, err := repo.GetByIDs(context.Background(), []uuid.UUID{first, second})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, "alice", result[first].Username)
	require.Equal(t, "bob", result[second].Username)
	require.NoError(t, mock.ExpectationsWereMet())
}
