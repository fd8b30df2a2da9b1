package handler

import (
	"net/http"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// RefreshRequest represents the refresh and logout endpoint request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse pairs the account with its issued tokens
type AuthResponse struct {
	User  *model.User        `json:"user"`
	Token *service.TokenPair `json:"token"`
}

func sessionMeta(r *http.Request) service.SessionMeta {
	return service.SessionMeta{
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	result, err := h.authService.Register(r.Context(), req, sessionMeta(r))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, AuthResponse{User: result.User, Token: result.TokenPair})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if req.Identifier == "" || req.Password == "" {
		WriteError(w, r, model.NewValidationError([]model.FieldError{
			{Field: "identifier", Message: "identifier and password are required"},
		}))
		return
	}

	result, err := h.authService.Login(r.Context(), req, sessionMeta(r))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, AuthResponse{User: result.User, Token: result.TokenPair})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r, model.NewValidationError([]model.FieldError{
			{Field: "refresh_token", Message: "refresh_token is required"},
		}))
		return
	}

	result, err := h.authService.Refresh(r.Context(), req.RefreshToken, sessionMeta(r))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, AuthResponse{User: result.User, Token: result.TokenPair})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if err := h.authService.Logout(r.Context(), req.RefreshToken); err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user)
}

// ChangePassword handles POST /api/v1/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if err := model.ValidatePassword(req.NewPassword); err != nil {
		WriteError(w, r, model.NewValidationError([]model.FieldError{
			{Field: "new_password", Message: err.Error()},
		}))
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
