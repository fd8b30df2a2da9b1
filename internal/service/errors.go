package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account temporarily locked")
	ErrAccountInactive     = errors.New("account is not active")
	ErrEmailAlreadyExists  = errors.New("email already registered")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== User Errors =====
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrPasswordReuse    = errors.New("new password must differ from the current password")
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
)

// ===== API Key Errors =====
var (
	ErrAPIKeyNotFound     = errors.New("api key not found")
	ErrAPIKeyLimitReached = errors.New("maximum number of api keys reached")
	ErrInvalidAPIKey      = errors.New("invalid api key")
	ErrNotKeyOwner        = errors.New("not the owner of this api key")
)

// ===== Post Errors =====
var (
	ErrPostNotFound = errors.New("post not found")
	ErrNotPostOwner = errors.New("not the author of this post")
)
