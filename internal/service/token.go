package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/pkg/jwt"
)

// TokenService issues JWT access tokens and manages opaque refresh sessions
type TokenService struct {
	jwtService  *jwt.Service
	sessionRepo SessionRepository
	sessionTTL  time.Duration
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService  *jwt.Service
	SessionRepo SessionRepository
	SessionTTL  time.Duration // Default: 30 days
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}

	return &TokenService{
		jwtService:  cfg.JWTService,
		sessionRepo: cfg.SessionRepo,
		sessionTTL:  cfg.SessionTTL,
	}
}

// TokenPair represents an access token and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// SessionMeta carries request context stored alongside a session
type SessionMeta struct {
	UserAgent string
	IP        string
}

// GenerateTokenPair creates a new access token and refresh session for a user
func (s *TokenService) GenerateTokenPair(ctx context.Context, user *model.User, meta SessionMeta) (*TokenPair, error) {
	claims := jwt.Claims{
		Subject:  user.ID,
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	}

	accessToken, err := s.jwtService.Sign(claims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	// Only the hash ever reaches storage
	session := &model.Session{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresOn: time.Now().Add(s.sessionTTL),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwtService.GetExpiration().Seconds()),
	}, nil
}

// Refresh validates a refresh token and issues a new pair.
// Single-use rotation: the presented session is revoked and replaced.
// Returns the session's user ID so the caller can load the user.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrInvalidRefreshToken
	}
	if session.RevokedOn != nil {
		return "", ErrRefreshTokenRevoked
	}
	if session.IsExpired() {
		return "", ErrRefreshTokenExpired
	}

	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return "", err
	}

	return session.UserID, nil
}

// Revoke invalidates the session matching the given refresh token and
// returns the session owner's user ID. Unknown tokens are ignored so
// logout is idempotent.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) (string, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", nil
	}
	if err := s.sessionRepo.Revoke(ctx, session.ID); err != nil {
		return "", err
	}
	return session.UserID, nil
}

// RevokeAllForUser invalidates every active session for a user
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	return s.sessionRepo.RevokeAllForUser(ctx, userID)
}

// ValidateAccessToken validates a JWT access token
func (s *TokenService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.jwtService.Validate(token)
}

// generateRefreshToken creates a 256-bit random opaque token
func generateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashToken hashes a token for storage using SHA-256
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
