package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// AccessClaims represents the claims stored in an access token
type AccessClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// PasetoService mints and verifies the two token kinds with distinct
// symmetric keys, so an access token never verifies as a refresh token.
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	accessKey  paseto.V4SymmetricKey
	refreshKey paseto.V4SymmetricKey
}

func NewPasetoService(accessKey, refreshKey []byte) (*PasetoService, error) {
	if len(accessKey) != 32 {
		return nil, fmt.Errorf("access key must be exactly 32 bytes, got %d", len(accessKey))
	}
	if len(refreshKey) != 32 {
		return nil, fmt.Errorf("refresh key must be exactly 32 bytes, got %d", len(refreshKey))
	}

	ak, err := paseto.V4SymmetricKeyFromBytes(accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create access key: %w", err)
	}
	rk, err := paseto.V4SymmetricKeyFromBytes(refreshKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh key: %w", err)
	}

	return &PasetoService{accessKey: ak, refreshKey: rk}, nil
}

// CreateAccessToken generates a short-lived PASETO v4.local token carrying the
// public identity claims
func (s *PasetoService) CreateAccessToken(userID uuid.UUID, email, username, fullName string, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("user_id", userID.String())
	token.SetString("email", email)
	token.SetString("username", username)
	token.SetString("full_name", fullName)

	return token.V4Encrypt(s.accessKey, nil), nil
}

// VerifyAccessToken validates an access token and returns its claims
func (s *PasetoService) VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.accessKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims := &AccessClaims{}
	if claims.UserID, err = token.GetString("user_id"); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Email, err = token.GetString("email"); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Username, err = token.GetString("username"); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.FullName, err = token.GetString("full_name"); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt, err = token.GetIssuedAt(); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt, err = token.GetExpiration(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CreateRefreshToken generates a long-lived PASETO v4.local token carrying only
// the user ID
func (s *PasetoService) CreateRefreshToken(userID uuid.UUID, duration time.Duration) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(duration))
	token.SetString("user_id", userID.String())

	return token.V4Encrypt(s.refreshKey, nil), nil
}

// VerifyRefreshToken validates a refresh token and returns the user ID it names
func (s *PasetoService) VerifyRefreshToken(tokenStr string) (uuid.UUID, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.refreshKey, tokenStr, nil)
	if err != nil {
		if errors.Is(err, &paseto.RuleError{}) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	userIDStr, err := token.GetString("user_id")
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}
