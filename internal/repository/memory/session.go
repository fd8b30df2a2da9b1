package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// SessionRepository stores refresh sessions in memory
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewSessionRepository creates an empty in-memory session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*model.Session)}
}

// Create stores a new session, assigning an ID and creation timestamp
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.TokenHash == session.TokenHash {
			return database.ErrDuplicate
		}
	}

	session.ID = "session:" + uuid.NewString()
	session.CreatedOn = time.Now().UTC()

	r.sessions[session.ID] = cloneSession(session)
	return nil
}

// GetByTokenHash returns the session with the given token hash, or nil
func (r *SessionRepository) GetByTokenHash(ctx context.Context, hash string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if session.TokenHash == hash {
			return cloneSession(session), nil
		}
	}
	return nil, nil
}

// Revoke marks a session as revoked
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return database.ErrNotFound
	}
	if session.RevokedOn == nil {
		now := time.Now().UTC()
		session.RevokedOn = &now
	}
	return nil
}

// RevokeAllForUser revokes every active session belonging to a user and
// returns the number revoked
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedOn == nil {
			session.RevokedOn = &now
			count++
		}
	}
	return count, nil
}

// DeleteExpired removes sessions past their expiry and returns the number
// removed. Revoked sessions are kept until they expire.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	count := 0
	for id, session := range r.sessions {
		if now.After(session.ExpiresOn) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

func cloneSession(session *model.Session) *model.Session {
	clone := *session
	clone.RevokedOn = clonePtr(session.RevokedOn)
	return &clone
}
