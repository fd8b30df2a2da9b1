package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// UserRepository stores users in memory
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*model.User)}
}

// Create stores a new user, assigning an ID and timestamps.
// Username and email uniqueness includes soft-deleted users, matching the
// database unique indexes.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		if strings.EqualFold(existing.Username, user.Username) {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
	}

	now := time.Now().UTC()
	user.ID = "user:" + uuid.NewString()
	user.CreatedOn = now
	user.UpdatedOn = now

	r.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID returns a user by ID, or nil if not found or soft-deleted
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted() {
		return nil, nil
	}
	return cloneUser(user), nil
}

// GetByEmail returns a user by email (case-insensitive), or nil if not found
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) && !user.IsDeleted() {
			return cloneUser(user), nil
		}
	}
	return nil, nil
}

// GetByUsername returns a user by username (case-insensitive), or nil if not found
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) && !user.IsDeleted() {
			return cloneUser(user), nil
		}
	}
	return nil, nil
}

// List returns users matching the filters, paginated by skip and limit.
// The second return value is the total match count before pagination.
func (r *UserRepository) List(ctx context.Context, filters model.UserFilters, skip, limit int) ([]*model.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.User, 0)
	for _, user := range r.users {
		if user.IsDeleted() {
			continue
		}
		if !matchesUserFilters(user, filters) {
			continue
		}
		matched = append(matched, user)
	}

	// Stable order so pagination does not skip or repeat records
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedOn.Equal(matched[j].CreatedOn) {
			return matched[i].CreatedOn.Before(matched[j].CreatedOn)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	page := paginate(matched, skip, limit)

	out := make([]*model.User, 0, len(page))
	for _, user := range page {
		out = append(out, cloneUser(user))
	}
	return out, total, nil
}

// Update replaces the stored user, refreshing UpdatedOn
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok || existing.IsDeleted() {
		return database.ErrNotFound
	}

	for id, other := range r.users {
		if id == user.ID {
			continue
		}
		if strings.EqualFold(other.Email, user.Email) {
			return fmt.Errorf("%w: email already exists", database.ErrDuplicate)
		}
		if strings.EqualFold(other.Username, user.Username) {
			return fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
	}

	user.CreatedOn = existing.CreatedOn
	user.UpdatedOn = time.Now().UTC()
	r.users[user.ID] = cloneUser(user)
	return nil
}

// SoftDelete marks a user as deleted without removing the record
func (r *UserRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.IsDeleted() {
		return database.ErrNotFound
	}

	now := time.Now().UTC()
	user.DeletedOn = &now
	user.UpdatedOn = now
	user.IsActive = false
	if deletedBy != "" {
		user.UpdatedBy = &deletedBy
	}
	return nil
}

func matchesUserFilters(user *model.User, filters model.UserFilters) bool {
	if filters.IsActive != nil && user.IsActive != *filters.IsActive {
		return false
	}
	if filters.CreatedAfter != nil && user.CreatedOn.Before(*filters.CreatedAfter) {
		return false
	}
	if filters.CreatedBefore != nil && user.CreatedOn.After(*filters.CreatedBefore) {
		return false
	}
	if filters.Search != "" {
		needle := strings.ToLower(filters.Search)
		fullName := ""
		if user.FullName != nil {
			fullName = *user.FullName
		}
		if !strings.Contains(strings.ToLower(user.Username), needle) &&
			!strings.Contains(strings.ToLower(user.Email), needle) &&
			!strings.Contains(strings.ToLower(fullName), needle) {
			return false
		}
	}
	return true
}

func cloneUser(user *model.User) *model.User {
	clone := *user
	clone.FullName = clonePtr(user.FullName)
	clone.LastLoginOn = clonePtr(user.LastLoginOn)
	clone.LockedUntil = clonePtr(user.LockedUntil)
	clone.CreatedBy = clonePtr(user.CreatedBy)
	clone.UpdatedBy = clonePtr(user.UpdatedBy)
	clone.DeletedOn = clonePtr(user.DeletedOn)
	return &clone
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return items[skip:end]
}
