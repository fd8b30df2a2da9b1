package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

// PostRepository handles post data access
type PostRepository struct {
	db database.Database
}

// NewPostRepository creates a new post repository
func NewPostRepository(db database.Database) *PostRepository {
	return &PostRepository{db: db}
}

// Create creates a new post
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	query := `
		CREATE post CONTENT {
			author_id: $author_id,
			title: $title,
			content: $content,
			is_published: $is_published,
			published_on: <option<datetime>>$published_on,
			view_count: 0,
			created_by: $created_by,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"author_id":    post.AuthorID,
		"title":        post.Title,
		"content":      post.Content,
		"is_published": post.IsPublished,
		"published_on": timeOrNil(post.PublishedOn),
		"created_by":   strOrNil(post.CreatedBy),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
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

	post.ID = extractRecordID(record["id"])
	post.CreatedOn = getTime(record, "created_on")
	post.UpdatedOn = getTime(record, "updated_on")
	return nil
}

// GetByID retrieves a post by ID, or nil when absent or soft-deleted
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT * FROM type::record($id) WHERE deleted_on IS NONE`,
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
	return parsePostRecord(record), nil
}

// List retrieves posts matching the filters with offset pagination.
// The second return value is the total match count before pagination.
func (r *PostRepository) List(ctx context.Context, filters model.PostFilters, skip, limit int) ([]*model.Post, int, error) {
	where := []string{"deleted_on IS NONE"}
	vars := map[string]interface{}{
		"skip":  skip,
		"limit": limit,
	}

	if filters.AuthorID != "" {
		where = append(where, "author_id = $author_id")
		vars["author_id"] = filters.AuthorID
	}
	if filters.IsPublished != nil {
		where = append(where, "is_published = $is_published")
		vars["is_published"] = *filters.IsPublished
	}
	if filters.Search != "" {
		where = append(where, "string::lowercase(title) CONTAINS $search")
		vars["search"] = strings.ToLower(filters.Search)
	}

	clause := strings.Join(where, " AND ")

	countResult, err := r.db.QueryOne(ctx,
		`SELECT count() AS count FROM post WHERE `+clause+` GROUP ALL`, vars)
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
		`SELECT * FROM post WHERE `+clause+` ORDER BY created_on ASC LIMIT $limit START $skip`, vars)
	if err != nil {
		return nil, 0, err
	}

	rows, _ := extractQueryResults(result)
	posts := make([]*model.Post, 0, len(rows))
	for _, row := range rows {
		record, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		posts = append(posts, parsePostRecord(record))
	}
	return posts, total, nil
}

// Update persists changes to an existing post
func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	query := `
		UPDATE type::record($id) MERGE {
			title: $title,
			content: $content,
			is_published: $is_published,
			published_on: <option<datetime>>$published_on,
			view_count: $view_count,
			updated_by: $updated_by,
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"id":           post.ID,
		"title":        post.Title,
		"content":      post.Content,
		"is_published": post.IsPublished,
		"published_on": timeOrNil(post.PublishedOn),
		"view_count":   post.ViewCount,
		"updated_by":   strOrNil(post.UpdatedBy),
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

// SoftDelete marks a post as deleted without removing the record
func (r *PostRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	query := `
		UPDATE type::record($id) MERGE {
			deleted_on: time::now(),
			updated_on: time::now(),
			updated_by: $deleted_by
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

func parsePostRecord(record map[string]interface{}) *model.Post {
	return &model.Post{
		ID:          extractRecordID(record["id"]),
		AuthorID:    getString(record, "author_id"),
		Title:       getString(record, "title"),
		Content:     getString(record, "content"),
		IsPublished: getBool(record, "is_published"),
		PublishedOn: getTimePtr(record, "published_on"),
		ViewCount:   getInt(record, "view_count"),
		CreatedBy:   getStringPtr(record, "created_by"),
		UpdatedBy:   getStringPtr(record, "updated_by"),
		CreatedOn:   getTime(record, "created_on"),
		UpdatedOn:   getTime(record, "updated_on"),
		DeletedOn:   getTimePtr(record, "deleted_on"),
	}
}
