package handler

import (
	"net/http"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// APIKeyHandler handles API key management endpoints
type APIKeyHandler struct {
	keyService *service.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keyService *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keyService: keyService}
}

// CreatedKeyResponse carries the raw key exactly once, at creation
type CreatedKeyResponse struct {
	APIKey *model.APIKey `json:"api_key"`
	Key    string        `json:"key"`
}

// Create handles POST /api/v1/api-keys
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAPIKeyRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		WriteError(w, r, model.NewValidationError(errs))
		return
	}

	created, err := h.keyService.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, CreatedKeyResponse{APIKey: created.APIKey, Key: created.Key})
}

// List handles GET /api/v1/api-keys
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyService.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, keys)
}

// Revoke handles DELETE /api/v1/api-keys/{keyId}
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.keyService.Revoke(ctx, r.PathValue("keyId"), middleware.GetUserID(ctx), middleware.IsAdmin(ctx)); err != nil {
		WriteError(w, r, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
