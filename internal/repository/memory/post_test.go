package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/latticekit/api/internal/database"
	"github.com/latticekit/api/internal/model"
)

func TestPostRepository_CRUD(t *testing.T) {
	repo := NewPostRepository()
	ctx := context.Background()

	post := &model.Post{AuthorID: "user:1", Title: "First", Content: "hello"}
	if err := repo.Create(ctx, post); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if post.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := repo.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got == nil || got.Title != "First" {
		t.Fatalf("GetByID() = %+v, want First", got)
	}

	got.Title = "Updated"
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	again, _ := repo.GetByID(ctx, post.ID)
	if again.Title != "Updated" {
		t.Errorf("Title = %q, want Updated", again.Title)
	}

	if err := repo.SoftDelete(ctx, post.ID, "user:1"); err != nil {
		t.Fatalf("SoftDelete() error: %v", err)
	}
	if deleted, _ := repo.GetByID(ctx, post.ID); deleted != nil {
		t.Error("soft-deleted post should be invisible")
	}
	if err := repo.Update(ctx, got); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Update() after delete error = %v, want ErrNotFound", err)
	}
}

func TestPostRepository_List_Filters(t *testing.T) {
	repo := NewPostRepository()
	ctx := context.Background()

	posts := []*model.Post{
		{AuthorID: "user:1", Title: "Go concurrency", IsPublished: true},
		{AuthorID: "user:1", Title: "Draft notes"},
		{AuthorID: "user:2", Title: "Release plan", IsPublished: true},
	}
	for _, p := range posts {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	byAuthor, total, err := repo.List(ctx, model.PostFilters{AuthorID: "user:1"}, 0, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 2 || len(byAuthor) != 2 {
		t.Errorf("author List() = %d/%d, want 2/2", len(byAuthor), total)
	}

	published := true
	pub, total, err := repo.List(ctx, model.PostFilters{IsPublished: &published}, 0, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 2 || len(pub) != 2 {
		t.Errorf("published List() = %d/%d, want 2/2", len(pub), total)
	}

	found, total, err := repo.List(ctx, model.PostFilters{Search: "concurrency"}, 0, 10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 1 || found[0].Title != "Go concurrency" {
		t.Errorf("search List() = %+v, want Go concurrency", found)
	}

	page, total, err := repo.List(ctx, model.PostFilters{}, 2, 2)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Errorf("paged List() = %d/%d, want 1/3", len(page), total)
	}
}
