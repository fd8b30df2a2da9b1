package handler

import (
	"errors"

	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/service"
)

// MapServiceError converts a service error to an error envelope. This
// centralizes error handling for all handlers, ensuring consistent HTTP
// status codes and error codes across the API.
func MapServiceError(err error) *model.ErrorResponse {
	if err == nil {
		return nil
	}

	// ===== Authentication Errors → 401 =====
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked),
		errors.Is(err, service.ErrInvalidAPIKey):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrAccountLocked),
		errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrNotKeyOwner),
		errors.Is(err, service.ErrNotPostOwner),
		errors.Is(err, service.ErrCannotDeleteSelf):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrPostNotFound):
		return model.NewNotFoundError("post")
	case errors.Is(err, service.ErrAPIKeyNotFound):
		return model.NewNotFoundError("API key")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrUsernameTaken):
		return model.NewConflictError(err.Error())

	// ===== Request Errors → 400/422 =====
	case errors.Is(err, service.ErrWrongPassword):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, service.ErrPasswordReuse):
		return model.NewValidationError([]model.FieldError{
			{Field: "new_password", Message: err.Error()},
		})
	case errors.Is(err, service.ErrAPIKeyLimitReached):
		return model.NewBadRequestError(err.Error())
	}

	// Unknown errors never leak internals to the client
	return model.NewInternalError("")
}
