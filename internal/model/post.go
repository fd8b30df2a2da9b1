package model

import "time"

// Post length limits
const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 50000
)

// Post represents a content record authored by a user
type Post struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedOn *time.Time `json:"published_on,omitempty"`
	ViewCount   int        `json:"view_count"`
	CreatedBy   *string    `json:"created_by,omitempty"`
	UpdatedBy   *string    `json:"updated_by,omitempty"`
	CreatedOn   time.Time  `json:"created_on"`
	UpdatedOn   time.Time  `json:"updated_on"`
	DeletedOn   *time.Time `json:"-"`
}

// IsDeleted returns true if the post has been soft-deleted
func (p *Post) IsDeleted() bool {
	return p.DeletedOn != nil
}

// CreatePostRequest carries a new post submission
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// Validate checks the post submission fields
func (r *CreatePostRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	} else if len(r.Title) > MaxPostTitleLength {
		errs = append(errs, FieldError{Field: "title", Message: "title exceeds maximum length"})
	}
	if len(r.Content) > MaxPostContentLength {
		errs = append(errs, FieldError{Field: "content", Message: "content exceeds maximum length"})
	}
	return errs
}

// UpdatePostRequest carries a partial post update. Nil fields are untouched.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Validate checks the provided fields of a partial update
func (r *UpdatePostRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Title != nil {
		if *r.Title == "" {
			errs = append(errs, FieldError{Field: "title", Message: "title cannot be empty"})
		} else if len(*r.Title) > MaxPostTitleLength {
			errs = append(errs, FieldError{Field: "title", Message: "title exceeds maximum length"})
		}
	}
	if r.Content != nil && len(*r.Content) > MaxPostContentLength {
		errs = append(errs, FieldError{Field: "content", Message: "content exceeds maximum length"})
	}
	return errs
}

// PostFilters narrows a post listing
type PostFilters struct {
	AuthorID    string
	IsPublished *bool
	Search      string // matches title
}
