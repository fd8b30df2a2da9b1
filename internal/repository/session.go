package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// SessionRepository handles refresh session data access
type SessionRepository struct {
	db database.Database
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	query := `
		CREATE session CONTENT {
			user_id: $user_id,
			token_hash: $token_hash,
			user_agent: $user_agent,
			ip: $ip,
			expires_on: <datetime>$expires_on,
			created_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"user_id":    session.UserID,
		"token_hash": session.TokenHash,
		"user_agent": session.UserAgent,
		"ip":         session.IP,
		"expires_on": timeOrNil(&session.ExpiresOn),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: token hash already exists", database.ErrDuplicate)
		}
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrQuery
	}
	record, ok := rows[0].(map[string]interface{})
	if !ok {
		return database.ErrQuery
	}

	session.ID = extractRecordID(record["id"])
	session.CreatedOn = getTime(record, "created_on")
	return nil
}

// GetByTokenHash retrieves a session by its token hash, or nil when absent
func (r *SessionRepository) GetByTokenHash(ctx context.Context, hash string) (*model.Session, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT * FROM session WHERE token_hash = $token_hash LIMIT 1`,
		map[string]interface{}{"token_hash": hash},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	record, ok := result.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	return parseSessionRecord(record), nil
}

// Revoke marks a session as revoked
func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	result, err := r.db.Query(ctx,
		`UPDATE type::record($id) MERGE { revoked_on: time::now() }`,
		map[string]interface{}{"id": id},
	)
	if err != nil {
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrNotFound
	}
	return nil
}

// RevokeAllForUser revokes every active session belonging to a user and
// returns the number revoked
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	result, err := r.db.Query(ctx,
		`UPDATE session SET revoked_on = time::now() WHERE user_id = $user_id AND revoked_on IS NONE`,
		map[string]interface{}{"user_id": userID},
	)
	if err != nil {
		return 0, err
	}

	rows, _ := extractQueryResults(result)
	return len(rows), nil
}

// DeleteExpired removes sessions past their expiry and returns the number
// removed
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	result, err := r.db.Query(ctx,
		`DELETE session WHERE expires_on < time::now() RETURN BEFORE`,
		nil,
	)
	if err != nil {
		return 0, err
	}

	rows, _ := extractQueryResults(result)
	return len(rows), nil
}

func parseSessionRecord(record map[string]interface{}) *model.Session {
	return &model.Session{
		ID:        extractRecordID(record["id"]),
		UserID:    getString(record, "user_id"),
		TokenHash: getString(record, "token_hash"),
		UserAgent: getString(record, "user_agent"),
		IP:        getString(record, "ip"),
		ExpiresOn: getTime(record, "expires_on"),
		RevokedOn: getTimePtr(record, "revoked_on"),
		CreatedOn: getTime(record, "created_on"),
	}
}
