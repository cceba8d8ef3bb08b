package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/user"
)

// fakeUserRepo is an in-memory user.Repository for service tests.
type fakeUserRepo struct {
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, nu user.NewUser) (*user.User, error) {
	username := strings.ToLower(strings.TrimSpace(nu.Username))
	email := strings.ToLower(strings.TrimSpace(nu.Email))
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return nil, user.ErrDuplicateUser
		}
	}
	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FullName:     strings.TrimSpace(nu.FullName),
		AvatarURL:    nu.AvatarURL,
		PasswordHash: nu.PasswordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	u.CoverImageURL = nu.CoverImageURL
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*user.User, error) {
	result := make(map[uuid.UUID]*user.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*user.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.FullName = strings.TrimSpace(fullName)
	u.Email = strings.ToLower(strings.TrimSpace(email))
	return u, nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return u, nil
}

func (f *fakeUserRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	u.CoverImageURL = &coverImageURL
	return u, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) SetRefreshFingerprint(ctx context.Context, id uuid.UUID, fp *string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.RefreshTokenHash = fp
	return nil
}

func newTestService(t *testing.T, repo user.Repository) *Service {
	t.Helper()

	tokens, err := NewPasetoService(
		[]byte("0123456789abcdef0123456789abcdef"),
		[]byte("fedcba9876543210fedcba9876543210"),
	)
	require.NoError(t, err)

	return NewService(repo, tokens, logging.NewLogger(true), 15*time.Minute, 7*24*time.Hour)
}

func registerTestUser(t *testing.T, svc *Service) *user.User {
	t.Helper()

	u, err := svc.Register(context.Background(), RegisterInput{
		FullName:  "Alice Liddell",
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "wonderland",
		AvatarURL: "https://media.example.com/avatar.png",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_HashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)

	u := registerTestUser(t, svc)

	require.NotEqual(t, "wonderland", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("wonderland")))
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	ctx := context.Background()

	base := RegisterInput{
		FullName:  "Alice Liddell",
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "wonderland",
		AvatarURL: "https://media.example.com/avatar.png",
	}

	in := base
	in.FullName = "  "
	_, err := svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrFullNameRequired)

	in = base
	in.Username = ""
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrUsernameRequired)

	in = base
	in.Email = "not-an-email"
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrInvalidEmailFormat)

	in = base
	in.Password = ""
	_, err = svc.Register(ctx, in)
	require.ErrorIs(t, err, ErrPasswordRequired)
}

func TestRegister_DuplicateUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())

	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		FullName:  "Other Alice",
		Username:  "alice",
		Email:     "other@example.com",
		Password:  "secret",
		AvatarURL: "https://media.example.com/other.png",
	})
	require.ErrorIs(t, err, user.ErrDuplicateUser)
}

func TestLogin_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	u, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)
	require.Equal(t, registered.ID, u.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)

	// The refresh fingerprint must be persisted
	stored, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
}

func TestLogin_ByEmail(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "", "alice@example.com", "wonderland")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	registerTestUser(t, svc)

	_, _, err := svc.Login(context.Background(), "alice", "", "not-the-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())

	_, _, err := svc.Login(context.Background(), "nobody", "", "whatever")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())
	registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)

	_, rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
}

func TestRefresh_ReuseDetection(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	// Replaying the rotated-out token must fail and revoke the session
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReuseDetected)

	stored, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)
}

func TestRefresh_EmptyToken(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo())

	_, _, err := svc.Refresh(context.Background(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRefresh_DeletedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)

	delete(repo.users, registered.ID)

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccess(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)

	u, err := svc.VerifyAccess(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, registered.ID, u.ID)

	// Access tokens for deleted users stop verifying
	delete(repo.users, registered.ID)
	_, err = svc.VerifyAccess(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_ClearsFingerprint(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	_, pair, err := svc.Login(context.Background(), "alice", "", "wonderland")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), registered))

	stored, err := repo.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RefreshTokenHash)

	// The old refresh token no longer rotates
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, ErrTokenReuseDetected)
}

func TestChangePassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(t, repo)
	registered := registerTestUser(t, svc)

	err := svc.ChangePassword(context.Background(), registered, "wrong-old", "newsecret")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(context.Background(), registered, "wonderland", "newsecret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice", "", "newsecret")
	require.NoError(t, err)
}
