package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/clipstream-api/internal/logging"
	"github.com/clipstream/clipstream-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username, email or password")
	ErrUnauthorized       = errors.New("no credential presented")
	ErrTokenReuseDetected = errors.New("refresh token does not match the active session")
	ErrFullNameRequired   = errors.New("full name is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// bcryptCost is the password hashing work factor.
const bcryptCost = 10

// TokenPair is an access/refresh token pair returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterInput carries the validated registration fields. Media URLs are
// resolved by the handler before the service is called.
type RegisterInput struct {
	FullName      string
	Username      string
	Email         string
	Password      string
	AvatarURL     string
	CoverImageURL *string
}

// Service handles the credential and session-token lifecycle
type Service struct {
	users                user.Repository
	tokens               *PasetoService
	logger               *logging.Logger
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
}

func NewService(
	users user.Repository,
	tokens *PasetoService,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
) *Service {
	return &Service{
		users:                users,
		tokens:               tokens,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
	}
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	// Validate input
	if strings.TrimSpace(in.FullName) == "" {
		return nil, ErrFullNameRequired
	}
	if strings.TrimSpace(in.Username) == "" {
		return nil, ErrUsernameRequired
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, ErrPasswordRequired
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.NewUser{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		AvatarURL:     in.AvatarURL,
		CoverImageURL: in.CoverImageURL,
		PasswordHash:  passwordHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUser) {
			return nil, user.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login authenticates a user by username or email and issues a token pair
func (s *Service) Login(ctx context.Context, username, email, password string) (*user.User, *TokenPair, error) {
	if username == "" && email == "" {
		return nil, nil, ErrInvalidCredentials
	}
	if password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existing, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, user.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.verifyPassword(existing.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokenPair(ctx, existing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return existing, pair, nil
}

// IssueTokenPair mints a new access/refresh pair and persists the refresh
// fingerprint on the user record, replacing any prior value. Older refresh
// tokens stop verifying against the fingerprint from this point on.
func (s *Service) IssueTokenPair(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, err := s.tokens.CreateAccessToken(u.ID, u.Email, u.Username, u.FullName, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.CreateRefreshToken(u.ID, s.refreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	fp := fingerprint(refreshToken)
	if err := s.users.SetRefreshFingerprint(ctx, u.ID, &fp); err != nil {
		return nil, fmt.Errorf("failed to store refresh fingerprint: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}

// Refresh rotates a presented refresh token into a new pair.
// A token that verifies but does not match the stored fingerprint signals
// reuse after rotation; the session is revoked before the error is returned.
func (s *Service) Refresh(ctx context.Context, presented string) (*user.User, *TokenPair, error) {
	if presented == "" {
		return nil, nil, ErrUnauthorized
	}

	userID, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	fp := fingerprint(presented)
	if existing.RefreshTokenHash == nil || *existing.RefreshTokenHash != fp {
		// Possible theft: a rotated-out token came back. Revoke the session.
		if err := s.users.SetRefreshFingerprint(ctx, existing.ID, nil); err != nil {
			s.logger.Warn("failed to revoke session after token reuse", "user_id", existing.ID, "error", err)
		}
		return nil, nil, ErrTokenReuseDetected
	}

	pair, err := s.IssueTokenPair(ctx, existing)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return existing, pair, nil
}

// VerifyAccess validates an access token and returns the user it names.
// The credential store is consulted so tokens for deleted users fail.
func (s *Service) VerifyAccess(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	existing, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return existing, nil
}

// Logout clears the refresh fingerprint, ending the active session
func (s *Service) Logout(ctx context.Context, u *user.User) error {
	if err := s.users.SetRefreshFingerprint(ctx, u.ID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh fingerprint: %w", err)
	}
	return nil
}

// ChangePassword verifies the old password and stores a hash of the new one
func (s *Service) ChangePassword(ctx context.Context, u *user.User, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrPasswordRequired
	}

	if !s.verifyPassword(u.PasswordHash, oldPassword) {
		return ErrInvalidCredentials
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, u.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// AccessTokenDuration exposes the configured access TTL for cookie expiry
func (s *Service) AccessTokenDuration() time.Duration { return s.accessTokenDuration }

// RefreshTokenDuration exposes the configured refresh TTL for cookie expiry
func (s *Service) RefreshTokenDuration() time.Duration { return s.refreshTokenDuration }

// hashPassword creates a bcrypt hash of the password
func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword checks the supplied candidate against the stored hash.
// bcrypt's comparison is constant time.
func (s *Service) verifyPassword(encodedHash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(candidate)) == nil
}

// fingerprint returns the hex SHA-256 of a refresh token; only the
// fingerprint is ever persisted
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
