package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// PostRepository stores posts in memory
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*model.Post
}

// NewPostRepository creates an empty in-memory post repository
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*model.Post)}
}

// Create stores a new post, assigning an ID and timestamps
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = "post:" + uuid.NewString()
	post.CreatedOn = now
	post.UpdatedOn = now

	r.posts[post.ID] = clonePost(post)
	return nil
}

// GetByID returns a post by ID, or nil if not found or soft-deleted
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok || post.IsDeleted() {
		return nil, nil
	}
	return clonePost(post), nil
}

// List returns posts matching the filters, paginated by skip and limit.
// The second return value is the total match count before pagination.
func (r *PostRepository) List(ctx context.Context, filters model.PostFilters, skip, limit int) ([]*model.Post, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Post, 0)
	for _, post := range r.posts {
		if post.IsDeleted() {
			continue
		}
		if filters.AuthorID != "" && post.AuthorID != filters.AuthorID {
			continue
		}
		if filters.IsPublished != nil && post.IsPublished != *filters.IsPublished {
			continue
		}
		if filters.Search != "" && !strings.Contains(strings.ToLower(post.Title), strings.ToLower(filters.Search)) {
			continue
		}
		matched = append(matched, post)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedOn.Equal(matched[j].CreatedOn) {
			return matched[i].CreatedOn.Before(matched[j].CreatedOn)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	page := paginate(matched, skip, limit)

	out := make([]*model.Post, 0, len(page))
	for _, post := range page {
		out = append(out, clonePost(post))
	}
	return out, total, nil
}

// Update replaces the stored post, refreshing UpdatedOn
func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok || existing.IsDeleted() {
		return database.ErrNotFound
	}

	post.CreatedOn = existing.CreatedOn
	post.UpdatedOn = time.Now().UTC()
	r.posts[post.ID] = clonePost(post)
	return nil
}

// SoftDelete marks a post as deleted without removing the record
func (r *PostRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.IsDeleted() {
		return database.ErrNotFound
	}

	now := time.Now().UTC()
	post.DeletedOn = &now
	post.UpdatedOn = now
	if deletedBy != "" {
		post.UpdatedBy = &deletedBy
	}
	return nil
}

func clonePost(post *model.Post) *model.Post {
	clone := *post
	clone.PublishedOn = clonePtr(post.PublishedOn)
	clone.CreatedBy = clonePtr(post.CreatedBy)
	clone.UpdatedBy = clonePtr(post.UpdatedBy)
	clone.DeletedOn = clonePtr(post.DeletedOn)
	return &clone
}
