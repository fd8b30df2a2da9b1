package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/latticekit/api/internal/audit"
	"github.com/latticekit/api/internal/model"
)

// API keys render as "lk_<prefix>_<secret>". The prefix is the lookup handle;
// the secret is bcrypt-hashed before storage.
const (
	apiKeyScheme      = "lk"
	apiKeyPrefixBytes = 6
	apiKeySecretBytes = 24
	apiKeyHashCost    = 10 // lighter than passwords, keys are high-entropy
)

// APIKeyService manages machine credentials
type APIKeyService struct {
	keyRepo  APIKeyRepository
	userRepo UserRepository
	auditLog *audit.Logger
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(keyRepo APIKeyRepository, userRepo UserRepository, auditLog *audit.Logger) *APIKeyService {
	return &APIKeyService{keyRepo: keyRepo, userRepo: userRepo, auditLog: auditLog}
}

// CreatedAPIKey is returned once at creation; Key is never retrievable again
type CreatedAPIKey struct {
	APIKey *model.APIKey
	Key    string
}

// Create mints a new API key for a user
func (s *APIKeyService) Create(ctx context.Context, userID string, req model.CreateAPIKeyRequest) (*CreatedAPIKey, error) {
	count, err := s.keyRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxAPIKeysPerUser {
		return nil, ErrAPIKeyLimitReached
	}

	prefix, err := randomHex(apiKeyPrefixBytes)
	if err != nil {
		return nil, err
	}
	secret, err := randomHex(apiKeySecretBytes)
	if err != nil {
		return nil, err
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), apiKeyHashCost)
	if err != nil {
		return nil, err
	}

	key := &model.APIKey{
		UserID:     userID,
		Name:       strings.TrimSpace(req.Name),
		Prefix:     prefix,
		SecretHash: string(secretHash),
		Status:     model.APIKeyStatusActive,
		Scopes:     req.Scopes,
		CreatedBy:  &userID,
	}
	if req.ExpiresInDays > 0 {
		expires := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		key.ExpiresOn = &expires
	}

	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	s.auditLog.APIKeyCreated(ctx, key.ID, userID)

	return &CreatedAPIKey{
		APIKey: key,
		Key:    fmt.Sprintf("%s_%s_%s", apiKeyScheme, prefix, secret),
	}, nil
}

// List returns all keys owned by a user
func (s *APIKeyService) List(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return s.keyRepo.ListByUser(ctx, userID)
}

// Revoke disables a key. Only the owner (or an admin, enforced by the
// handler) may revoke it.
func (s *APIKeyService) Revoke(ctx context.Context, keyID, userID string, isAdmin bool) error {
	key, err := s.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		return err
	}
	if key == nil {
		return ErrAPIKeyNotFound
	}
	if key.UserID != userID && !isAdmin {
		return ErrNotKeyOwner
	}
	if key.Status == model.APIKeyStatusRevoked {
		return nil
	}

	key.Status = model.APIKeyStatusRevoked
	if err := s.keyRepo.Update(ctx, key); err != nil {
		return err
	}

	s.auditLog.APIKeyRevoked(ctx, key.ID, key.UserID)
	return nil
}

// Authenticate resolves a raw "lk_<prefix>_<secret>" key to its owner.
// Usable keys update their last-used timestamp.
func (s *APIKeyService) Authenticate(ctx context.Context, rawKey string) (*model.User, *model.APIKey, error) {
	parts := strings.SplitN(rawKey, "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyScheme {
		return nil, nil, ErrInvalidAPIKey
	}
	prefix, secret := parts[1], parts[2]

	key, err := s.keyRepo.GetByPrefix(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}
	if key == nil {
		s.auditLog.APIKeyRejected(ctx, prefix, "unknown prefix")
		return nil, nil, ErrInvalidAPIKey
	}
	if !key.IsUsable() {
		s.auditLog.APIKeyRejected(ctx, prefix, "key not usable")
		return nil, nil, ErrInvalidAPIKey
	}

	if err := bcrypt.CompareHashAndPassword([]byte(key.SecretHash), []byte(secret)); err != nil {
		s.auditLog.APIKeyRejected(ctx, prefix, "secret mismatch")
		return nil, nil, ErrInvalidAPIKey
	}

	user, err := s.userRepo.GetByID(ctx, key.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !user.CanLogin() {
		s.auditLog.APIKeyRejected(ctx, prefix, "owner cannot authenticate")
		return nil, nil, ErrInvalidAPIKey
	}

	if err := s.keyRepo.TouchLastUsed(ctx, key.ID); err != nil {
		return nil, nil, err
	}
	now := time.Now().UTC()
	key.LastUsedOn = &now

	return user, key, nil
}

// randomHex returns n random bytes hex-encoded
func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
