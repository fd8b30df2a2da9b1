package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/pkg/jwt"
)

// TokenValidator validates JWT access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// KeyAuthenticator resolves a raw API key to its owner
type KeyAuthenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.User, *model.APIKey, error)
}

const (
	ClaimsKey   contextKey = "claims"
	UserRoleKey contextKey = "userRole"
	APIKeyKey   contextKey = "apiKey"
)

// Auth returns a middleware that validates bearer JWT tokens. Requests
// already authenticated upstream (API keys) pass through.
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserID(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, r, model.NewUnauthorizedError("missing or malformed authorization header"))
				return
			}

			claims, err := validator.ValidateAccessToken(token)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					WriteError(w, r, model.NewTokenExpiredError())
				case errors.Is(err, jwt.ErrInvalidSignature):
					WriteError(w, r, model.NewUnauthorizedError("invalid token signature"))
				default:
					WriteError(w, r, model.NewUnauthorizedError("invalid token"))
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but lets unauthenticated requests through.
// Valid credentials still populate the context.
func OptionalAuth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := validator.ValidateAccessToken(token); err == nil {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuth returns a middleware that authenticates via the X-API-Key
// header. Requests without the header pass through untouched so the
// middleware can stack with Auth.
func APIKeyAuth(keys KeyAuthenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, key, err := keys.Authenticate(r.Context(), rawKey)
			if err != nil {
				WriteError(w, r, model.NewUnauthorizedError("invalid API key"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
			ctx = context.WithValue(ctx, UserRoleKey, string(user.Role))
			ctx = context.WithValue(ctx, APIKeyKey, key)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns a middleware that rejects requests whose authenticated
// role is not one of the given roles. It must run after Auth or APIKeyAuth.
func RequireRole(roles ...model.UserRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetUserRole(r.Context())
			for _, want := range roles {
				if role == string(want) {
					next.ServeHTTP(w, r)
					return
				}
			}
			WriteError(w, r, model.NewForbiddenError("insufficient privileges"))
		})
	}
}

// AdminOnly restricts a route to administrators
func AdminOnly() Middleware {
	return RequireRole(model.UserRoleAdmin)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func withClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserRole extracts the authenticated role from context
func GetUserRole(ctx context.Context) string {
	if role, ok := ctx.Value(UserRoleKey).(string); ok {
		return role
	}
	return ""
}

// GetClaims extracts the JWT claims from context; nil for API key requests
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetAPIKey extracts the authenticating API key from context, if any
func GetAPIKey(ctx context.Context) *model.APIKey {
	if key, ok := ctx.Value(APIKeyKey).(*model.APIKey); ok {
		return key
	}
	return nil
}

// IsAdmin reports whether the request is authenticated as an administrator
func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == string(model.UserRoleAdmin)
}
