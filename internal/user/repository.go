package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/clipstream/clipstream-api/internal/database"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already exists")
)

// NewUser carries the fields required to create a user record.
type NewUser struct {
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL *string
	PasswordHash  string
}

// Repository is the credential store consumed by the auth and profile layers.
type Repository interface {
	Create(ctx context.Context, nu NewUser) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetRefreshFingerprint(ctx context.Context, id uuid.UUID, fingerprint *string) error
}

// BunRepository handles user data persistence in Postgres
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

// Create inserts a new user into the database
func (r *BunRepository) Create(ctx context.Context, nu NewUser) (*User, error) {
	dbUser := &database.User{
		Username:      strings.ToLower(strings.TrimSpace(nu.Username)),
		Email:         strings.ToLower(strings.TrimSpace(nu.Email)),
		FullName:      strings.TrimSpace(nu.FullName),
		AvatarURL:     nu.AvatarURL,
		CoverImageURL: nu.CoverImageURL,
		PasswordHash:  nu.PasswordHash,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByIDs retrieves users for a set of IDs, keyed by ID. Missing IDs are
// simply absent from the result.
func (r *BunRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*User{}, nil
	}

	var dbUsers []database.User
	err := r.db.NewSelect().
		Model(&dbUsers).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by ids: %w", err)
	}

	result := make(map[uuid.UUID]*User, len(dbUsers))
	for i := range dbUsers {
		result[dbUsers[i].ID] = mapDBUserToModel(&dbUsers[i])
	}
	return result, nil
}

// GetByUsername retrieves a user by their public username
func (r *BunRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", strings.ToLower(strings.TrimSpace(username))).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsernameOrEmail retrieves a user matching either identifier.
// Empty arguments never match.
func (r *BunRepository) GetByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" && email == "" {
		return nil, ErrNotFound
	}

	dbUser := new(database.User)
	q := r.db.NewSelect().Model(dbUser)
	switch {
	case username != "" && email != "":
		q = q.Where("username = ?", username).WhereOr("email = ?", email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		q = q.Where("email = ?", email)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username or email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateDetails updates the mutable profile fields and returns the fresh record
func (r *BunRepository) UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*User, error) {
	dbUser := new(database.User)
	res, err := r.db.NewUpdate().
		Model(dbUser).
		Set("full_name = ?", strings.TrimSpace(fullName)).
		Set("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to update user details: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateAvatar replaces the avatar URL and returns the fresh record
func (r *BunRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*User, error) {
	return r.updateMediaColumn(ctx, id, "avatar_url", avatarURL)
}

// UpdateCoverImage replaces the cover image URL and returns the fresh record
func (r *BunRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (*User, error) {
	return r.updateMediaColumn(ctx, id, "cover_image_url", coverImageURL)
}

func (r *BunRepository) updateMediaColumn(ctx context.Context, id uuid.UUID, column, url string) (*User, error) {
	dbUser := new(database.User)
	res, err := r.db.NewUpdate().
		Model(dbUser).
		Set(column+" = ?", url).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdatePassword replaces the stored password hash
func (r *BunRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetRefreshFingerprint stores the fingerprint of the current refresh token.
// A nil fingerprint clears the session (logout / revocation). Last writer wins
// when two refreshes race; that is the accepted single-session tradeoff.
func (r *BunRepository) SetRefreshFingerprint(ctx context.Context, id uuid.UUID, fingerprint *string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token_hash = ?", fingerprint).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set refresh fingerprint: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:               dbu.ID,
		Username:         dbu.Username,
		Email:            dbu.Email,
		FullName:         dbu.FullName,
		AvatarURL:        dbu.AvatarURL,
		CoverImageURL:    dbu.CoverImageURL,
		PasswordHash:     dbu.PasswordHash,
		RefreshTokenHash: dbu.RefreshTokenHash,
		CreatedAt:        dbu.CreatedAt,
		UpdatedAt:        dbu.UpdatedAt,
	}
}
