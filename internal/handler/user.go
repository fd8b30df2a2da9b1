package handler

import (
	"net/http"
	"strings"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Create handles POST /api/v1/users (admin only)
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	user, err := h.userService.Create(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, user)
}

// List handles GET /api/v1/users (admin only)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit, errs := parsePagination(r)
	if len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	filters := model.UserFilters{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	switch r.URL.Query().Get("is_active") {
	case "true":
		active := true
		filters.IsActive = &active
	case "false":
		active := false
		filters.IsActive = &active
	}

	users, total, err := h.userService.List(r.Context(), filters, skip, limit)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteCollection(w, skip, limit, total, users)
}

// Get handles GET /api/v1/users/{userId}. Regular users may only fetch
// themselves; admins and moderators may fetch anyone.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userId")
	ctx := r.Context()

	role := middleware.GetUserRole(ctx)
	privileged := role == string(model.UserRoleAdmin) || role == string(model.UserRoleModerator)
	if targetID != middleware.GetUserID(ctx) && !privileged {
		WriteError(w, r, model.NewForbiddenError("insufficient privileges"))
		return
	}

	user, err := h.userService.GetByID(ctx, targetID)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Update handles PATCH /api/v1/users/{userId}. Users may edit their own
// profile fields; role and activation changes require an admin.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userId")
	ctx := r.Context()

	var req model.UpdateUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	if !middleware.IsAdmin(ctx) {
		if targetID != middleware.GetUserID(ctx) {
			WriteError(w, r, model.NewForbiddenError("insufficient privileges"))
			return
		}
		if req.Role != nil || req.IsActive != nil {
			WriteError(w, r, model.NewForbiddenError("only administrators may change role or activation"))
			return
		}
	}

	user, err := h.userService.Update(ctx, targetID, req, middleware.GetUserID(ctx))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{userId} (admin only)
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("userId")

	if err := h.userService.Delete(r.Context(), targetID, middleware.GetUserID(r.Context())); err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
