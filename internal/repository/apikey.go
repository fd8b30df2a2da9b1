package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// APIKeyRepository handles API key data access
type APIKeyRepository struct {
	db database.Database
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db database.Database) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create creates a new API key
func (r *APIKeyRepository) Create(ctx context.Context, key *model.APIKey) error {
	query := `
		CREATE api_key CONTENT {
			user_id: $user_id,
			name: $name,
			prefix: $prefix,
			secret_hash: $secret_hash,
			status: $status,
			scopes: $scopes,
			expires_on: <option<datetime>>$expires_on,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	scopes := key.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	vars := map[string]interface{}{
		"user_id":     key.UserID,
		"name":        key.Name,
		"prefix":      key.Prefix,
		"secret_hash": key.SecretHash,
		"status":      string(key.Status),
		"scopes":      scopes,
		"expires_on":  timeOrNil(key.ExpiresOn),
		"created_by":  strOrNil(key.CreatedBy),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: key prefix already exists", database.ErrDuplicate)
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

	key.ID = extractRecordID(record["id"])
	key.CreatedOn = getTime(record, "created_on")
	key.UpdatedOn = getTime(record, "updated_on")
	return nil
}

// GetByID retrieves an API key by ID, or nil when absent
func (r *APIKeyRepository) GetByID(ctx context.Context, id string) (*model.APIKey, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT * FROM type::record($id)`,
		map[string]interface{}{"id": id},
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
	return parseAPIKeyRecord(record), nil
}

// GetByPrefix retrieves an API key by its public prefix, or nil when absent
func (r *APIKeyRepository) GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT * FROM api_key WHERE prefix = $prefix LIMIT 1`,
		map[string]interface{}{"prefix": prefix},
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
	return parseAPIKeyRecord(record), nil
}

// ListByUser retrieves all keys owned by a user, oldest first
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	result, err := r.db.Query(ctx,
		`SELECT * FROM api_key WHERE user_id = $user_id ORDER BY created_on ASC`,
		map[string]interface{}{"user_id": userID},
	)
	if err != nil {
		return nil, err
	}

	rows, _ := extractQueryResults(result)
	keys := make([]*model.APIKey, 0, len(rows))
	for _, row := range rows {
		record, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		keys = append(keys, parseAPIKeyRecord(record))
	}
	return keys, nil
}

// CountActiveByUser returns the number of active keys owned by a user
func (r *APIKeyRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT count() AS count FROM api_key WHERE user_id = $user_id AND status = 'active' GROUP ALL`,
		map[string]interface{}{"user_id": userID},
	)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if record, ok := result.(map[string]interface{}); ok {
		return extractCountValue(record["count"]), nil
	}
	return 0, nil
}

// Update persists changes to an existing key
func (r *APIKeyRepository) Update(ctx context.Context, key *model.APIKey) error {
	query := `
		UPDATE type::record($id) MERGE {
			name: $name,
			status: $status,
			scopes: $scopes,
			expires_on: <option<datetime>>$expires_on,
			updated_on: time::now()
		}
	`

	scopes := key.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	vars := map[string]interface{}{
		"id":         key.ID,
		"name":       key.Name,
		"status":     string(key.Status),
		"scopes":     scopes,
		"expires_on": timeOrNil(key.ExpiresOn),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrNotFound
	}
	return nil
}

// TouchLastUsed records a successful authentication with the key
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string) error {
	result, err := r.db.Query(ctx,
		`UPDATE type::record($id) MERGE { last_used_on: time::now() }`,
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

func parseAPIKeyRecord(record map[string]interface{}) *model.APIKey {
	return &model.APIKey{
		ID:         extractRecordID(record["id"]),
		UserID:     getString(record, "user_id"),
		Name:       getString(record, "name"),
		Prefix:     getString(record, "prefix"),
		SecretHash: getString(record, "secret_hash"),
		Status:     model.APIKeyStatus(getString(record, "status")),
		Scopes:     getStringSlice(record, "scopes"),
		LastUsedOn: getTimePtr(record, "last_used_on"),
		ExpiresOn:  getTimePtr(record, "expires_on"),
		CreatedBy:  getStringPtr(record, "created_by"),
		CreatedOn:  getTime(record, "created_on"),
		UpdatedOn:  getTime(record, "updated_on"),
	}
}
