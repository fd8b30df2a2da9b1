package service

import (
	"context"

	"github.com/latticekit/api/internal/model"
)

// Repository interfaces consumed by the services. Both the SurrealDB and the
// in-memory drivers satisfy them; the services never know which is wired.

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context, filters model.UserFilters, skip, limit int) ([]*model.User, int, error)
	Update(ctx context.Context, user *model.User) error
	SoftDelete(ctx context.Context, id, deletedBy string) error
}

// SessionRepository defines the interface for refresh session storage
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByTokenHash(ctx context.Context, hash string) (*model.Session, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context) (int, error)
}

// APIKeyRepository defines the interface for API key storage
type APIKeyRepository interface {
	Create(ctx context.Context, key *model.APIKey) error
	GetByID(ctx context.Context, id string) (*model.APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]*model.APIKey, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, key *model.APIKey) error
	TouchLastUsed(ctx context.Context, id string) error
}

// PostRepository defines the interface for post storage
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, filters model.PostFilters, skip, limit int) ([]*model.Post, int, error)
	Update(ctx context.Context, post *model.Post) error
	SoftDelete(ctx context.Context, id, deletedBy string) error
}
