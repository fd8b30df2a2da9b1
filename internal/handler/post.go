package handler

import (
	"net/http"
	"strings"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// PostHandler handles post endpoints
type PostHandler struct {
	postService *service.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// viewerFrom builds the reading identity from whatever auth context the
// request carries. Anonymous requests yield the zero Viewer.
func viewerFrom(r *http.Request) service.Viewer {
	ctx := r.Context()
	role := middleware.GetUserRole(ctx)
	return service.Viewer{
		ID:         middleware.GetUserID(ctx),
		Privileged: role == string(model.UserRoleAdmin) || role == string(model.UserRoleModerator),
	}
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	post, err := h.postService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, post)
}

// List handles GET /api/v1/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, errs := parsePagination(r)
	if len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	filters := model.PostFilters{
		AuthorID: r.URL.Query().Get("author_id"),
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
	}
	switch r.URL.Query().Get("published") {
	case "true":
		published := true
		filters.IsPublished = &published
	case "false":
		published := false
		filters.IsPublished = &published
	}

	posts, total, err := h.postService.List(r.Context(), filters, skip, limit, viewerFrom(r))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteCollection(w, skip, limit, total, posts)
}

// Get handles GET /api/v1/posts/{postId}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.GetByID(r.Context(), r.PathValue("postId"), viewerFrom(r))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, post)
}

// Update handles PATCH /api/v1/posts/{postId}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePostRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	ctx := r.Context()
	post, err := h.postService.Update(ctx, r.PathValue("postId"), middleware.GetUserID(ctx), middleware.IsAdmin(ctx), req)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, post)
}

// Publish handles POST /api/v1/posts/{postId}/publish
func (h *PostHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, err := h.postService.Publish(ctx, r.PathValue("postId"), middleware.GetUserID(ctx), middleware.IsAdmin(ctx))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, post)
}

// Delete handles DELETE /api/v1/posts/{postId}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.postService.Delete(ctx, r.PathValue("postId"), middleware.GetUserID(ctx), middleware.IsAdmin(ctx)); err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
