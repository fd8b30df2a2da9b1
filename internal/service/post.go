package service

import (
	"context"
	"strings"
	"time"

	"github.com/latticekit/api/internal/model"
)

// Viewer identifies who is reading posts. The zero value is an anonymous
// reader; Privileged viewers (admins, moderators) see unpublished drafts.
type Viewer struct {
	ID         string
	Privileged bool
}

// PostService handles post management operations
type PostService struct {
	postRepo PostRepository
}

// NewPostService creates a new post service
func NewPostService(postRepo PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// Create creates a post authored by the given user
func (s *PostService) Create(ctx context.Context, authorID string, req model.CreatePostRequest) (*model.Post, error) {
	post := &model.Post{
		AuthorID:  authorID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		CreatedBy: &authorID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetByID returns a post and counts the view
func (s *PostService) GetByID(ctx context.Context, id string, viewer Viewer) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if !post.IsPublished && !viewer.Privileged && post.AuthorID != viewer.ID {
		// Drafts are indistinguishable from missing posts to outsiders
		return nil, ErrPostNotFound
	}

	post.ViewCount++
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns posts matching the filters with offset pagination. Viewers
// without draft access only see published posts unless they filter on their
// own authorship.
func (s *PostService) List(ctx context.Context, filters model.PostFilters, skip, limit int, viewer Viewer) ([]*model.Post, int, error) {
	if !viewer.Privileged && (viewer.ID == "" || filters.AuthorID != viewer.ID) {
		published := true
		filters.IsPublished = &published
	}
	return s.postRepo.List(ctx, filters, skip, limit)
}

// Update applies a partial update. Only the author or an admin may edit.
func (s *PostService) Update(ctx context.Context, id, actorID string, isAdmin bool, req model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.AuthorID != actorID && !isAdmin {
		return nil, ErrNotPostOwner
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	post.UpdatedBy = &actorID

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Publish marks a post as published, stamping PublishedOn on first publish
func (s *PostService) Publish(ctx context.Context, id, actorID string, isAdmin bool) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.AuthorID != actorID && !isAdmin {
		return nil, ErrNotPostOwner
	}

	if !post.IsPublished {
		post.IsPublished = true
		now := time.Now().UTC()
		post.PublishedOn = &now
		post.UpdatedBy = &actorID
		if err := s.postRepo.Update(ctx, post); err != nil {
			return nil, err
		}
	}
	return post, nil
}

// Delete soft-deletes a post. Only the author or an admin may delete.
func (s *PostService) Delete(ctx context.Context, id, actorID string, isAdmin bool) error {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.AuthorID != actorID && !isAdmin {
		return ErrNotPostOwner
	}

	return s.postRepo.SoftDelete(ctx, id, actorID)
}
