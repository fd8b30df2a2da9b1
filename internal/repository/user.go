package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		CREATE user CONTENT {
			username: $username,
			email: $email,
			hash: $hash,
			full_name: $full_name,
			status: $status,
			role: $role,
			is_active: $is_active,
			email_verified: $email_verified,
			login_count: 0,
			failed_login_attempts: 0,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"username":       strings.ToLower(user.Username),
		"email":          strings.ToLower(user.Email),
		"hash":           user.Hash,
		"full_name":      strOrNil(user.FullName),
		"status":         string(user.Status),
		"role":           string(user.Role),
		"is_active":      user.IsActive,
		"email_verified": user.EmailVerified,
		"created_by":     strOrNil(user.CreatedBy),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: username or email already exists", database.ErrDuplicate)
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

	user.ID = extractRecordID(record["id"])
	user.CreatedOn = getTime(record, "created_on")
	user.UpdatedOn = getTime(record, "updated_on")
	return nil
}

// GetByID retrieves a user by ID, or nil when absent or soft-deleted
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx,
		`SELECT * FROM type::record($id) WHERE deleted_on IS NONE`,
		map[string]interface{}{"id": id},
	)
}

// GetByEmail retrieves a user by email, or nil when absent
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx,
		`SELECT * FROM user WHERE email = $email AND deleted_on IS NONE LIMIT 1`,
		map[string]interface{}{"email": strings.ToLower(email)},
	)
}

// GetByUsername retrieves a user by username, or nil when absent
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx,
		`SELECT * FROM user WHERE username = $username AND deleted_on IS NONE LIMIT 1`,
		map[string]interface{}{"username": strings.ToLower(username)},
	)
}

// List retrieves users matching the filters with offset pagination.
// The second return value is the total match count before pagination.
func (r *UserRepository) List(ctx context.Context, filters model.UserFilters, skip, limit int) ([]*model.User, int, error) {
	where := []string{"deleted_on IS NONE"}
	vars := map[string]interface{}{
		"skip":  skip,
		"limit": limit,
	}

	if filters.IsActive != nil {
		where = append(where, "is_active = $is_active")
		vars["is_active"] = *filters.IsActive
	}
	if filters.Search != "" {
		where = append(where, "(string::lowercase(username) CONTAINS $search OR string::lowercase(email) CONTAINS $search OR string::lowercase(full_name ?? '') CONTAINS $search)")
		vars["search"] = strings.ToLower(filters.Search)
	}
	if filters.CreatedAfter != nil {
		where = append(where, "created_on >= <datetime>$created_after")
		vars["created_after"] = timeOrNil(filters.CreatedAfter)
	}
	if filters.CreatedBefore != nil {
		where = append(where, "created_on <= <datetime>$created_before")
		vars["created_before"] = timeOrNil(filters.CreatedBefore)
	}

	clause := strings.Join(where, " AND ")

	countResult, err := r.db.QueryOne(ctx,
		`SELECT count() AS count FROM user WHERE `+clause+` GROUP ALL`, vars)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, 0, err
	}
	total := 0
	if countResult != nil {
		if record, ok := countResult.(map[string]interface{}); ok {
			total = extractCountValue(record["count"])
		}
	}

	result, err := r.db.Query(ctx,
		`SELECT * FROM user WHERE `+clause+` ORDER BY created_on ASC LIMIT $limit START $skip`, vars)
	if err != nil {
		return nil, 0, err
	}

	rows, _ := extractQueryResults(result)
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		record, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		users = append(users, parseUserRecord(record))
	}
	return users, total, nil
}

// Update persists changes to an existing user
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE type::record($id) MERGE {
			username: $username,
			email: $email,
			hash: $hash,
			full_name: $full_name,
			status: $status,
			role: $role,
			is_active: $is_active,
			email_verified: $email_verified,
			last_login_on: <option<datetime>>$last_login_on,
			login_count: $login_count,
			failed_login_attempts: $failed_login_attempts,
			locked_until: <option<datetime>>$locked_until,
			updated_by: $updated_by,
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"id":                    user.ID,
		"username":              strings.ToLower(user.Username),
		"email":                 strings.ToLower(user.Email),
		"hash":                  user.Hash,
		"full_name":             strOrNil(user.FullName),
		"status":                string(user.Status),
		"role":                  string(user.Role),
		"is_active":             user.IsActive,
		"email_verified":        user.EmailVerified,
		"last_login_on":         timeOrNil(user.LastLoginOn),
		"login_count":           user.LoginCount,
		"failed_login_attempts": user.FailedLoginAttempts,
		"locked_until":          timeOrNil(user.LockedUntil),
		"updated_by":            strOrNil(user.UpdatedBy),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: username or email already exists", database.ErrDuplicate)
		}
		return err
	}

	rows, ok := extractQueryResults(result)
	if !ok || len(rows) == 0 {
		return database.ErrNotFound
	}
	return nil
}

// SoftDelete marks a user as deleted without removing the record
func (r *UserRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	query := `
		UPDATE type::record($id) MERGE {
			deleted_on: time::now(),
			updated_on: time::now(),
			updated_by: $deleted_by,
			is_active: false
		} WHERE deleted_on IS NONE
	`
	vars := map[string]interface{}{
		"id":         id,
		"deleted_by": deletedBy,
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

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
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
	return parseUserRecord(record), nil
}

func parseUserRecord(record map[string]interface{}) *model.User {
	return &model.User{
		ID:                  extractRecordID(record["id"]),
		Username:            getString(record, "username"),
		Email:               getString(record, "email"),
		Hash:                getString(record, "hash"),
		FullName:            getStringPtr(record, "full_name"),
		Status:              model.UserStatus(getString(record, "status")),
		Role:                model.UserRole(getString(record, "role")),
		IsActive:            getBool(record, "is_active"),
		EmailVerified:       getBool(record, "email_verified"),
		LastLoginOn:         getTimePtr(record, "last_login_on"),
		LoginCount:          getInt(record, "login_count"),
		FailedLoginAttempts: getInt(record, "failed_login_attempts"),
		LockedUntil:         getTimePtr(record, "locked_until"),
		CreatedBy:           getStringPtr(record, "created_by"),
		UpdatedBy:           getStringPtr(record, "updated_by"),
		CreatedOn:           getTime(record, "created_on"),
		UpdatedOn:           getTime(record, "updated_on"),
		DeletedOn:           getTimePtr(record, "deleted_on"),
	}
}
