package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// APIKeyRepository stores API keys in memory
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]*model.APIKey
}

// NewAPIKeyRepository creates an empty in-memory API key repository
func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{keys: make(map[string]*model.APIKey)}
}

// Create stores a new API key, assigning an ID and timestamps
func (r *APIKeyRepository) Create(ctx context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.keys {
		if existing.Prefix == key.Prefix {
			return database.ErrDuplicate
		}
	}

	now := time.Now().UTC()
	key.ID = "api_key:" + uuid.NewString()
	key.CreatedOn = now
	key.UpdatedOn = now

	r.keys[key.ID] = cloneAPIKey(key)
	return nil
}

// GetByID returns an API key by ID, or nil if not found
func (r *APIKeyRepository) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[id]
	if !ok {
		return nil, nil
	}
	return cloneAPIKey(key), nil
}

// GetByPrefix returns an API key by its public prefix, or nil if not found
func (r *APIKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.Prefix == prefix {
			return cloneAPIKey(key), nil
		}
	}
	return nil, nil
}

// ListByUser returns all keys owned by a user, oldest first
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.APIKey, 0)
	for _, key := range r.keys {
		if key.UserID == userID {
			out = append(out, cloneAPIKey(key))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedOn.Equal(out[j].CreatedOn) {
			return out[i].CreatedOn.Before(out[j].CreatedOn)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountActiveByUser returns the number of active keys owned by a user
func (r *APIKeyRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, key := range r.keys {
		if key.UserID == userID && key.Status == model.APIKeyStatusActive {
			count++
		}
	}
	return count, nil
}

// Update replaces the stored key, refreshing UpdatedOn
func (r *APIKeyRepository) Update(ctx context.Context, key *model.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.keys[key.ID]
	if !ok {
		return database.ErrNotFound
	}

	key.CreatedOn = existing.CreatedOn
	key.UpdatedOn = time.Now().UTC()
	r.keys[key.ID] = cloneAPIKey(key)
	return nil
}

// TouchLastUsed records a successful authentication with the key
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return database.ErrNotFound
	}
	now := time.Now().UTC()
	key.LastUsedOn = &now
	return nil
}

func cloneAPIKey(key *model.APIKey) *model.APIKey {
	clone := *key
	if key.Scopes != nil {
		clone.Scopes = append([]string(nil), key.Scopes...)
	}
	clone.LastUsedOn = clonePtr(key.LastUsedOn)
	clone.ExpiresOn = clonePtr(key.ExpiresOn)
	clone.CreatedBy = clonePtr(key.CreatedBy)
	return &clone
}
