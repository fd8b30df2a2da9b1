package handler

import (
	"net/http"

	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/service"
)

// Services bundles everything the router needs
type Services struct {
	Auth   *service.AuthService
	Token  *service.TokenService
	User   *service.UserService
	Post   *service.PostService
	APIKey *service.APIKeyService
	Health *service.HealthService
}

// NewMux builds the route table. Authentication and authorization wrap
// individual routes here; cross-cutting middleware (correlation IDs,
// logging, rate limiting) wraps the returned mux in the server setup.
func NewMux(s Services) *http.ServeMux {
	authHandler := NewAuthHandler(s.Auth, s.User)
	userHandler := NewUserHandler(s.User)
	postHandler := NewPostHandler(s.Post)
	keyHandler := NewAPIKeyHandler(s.APIKey)
	healthHandler := NewHealthHandler(s.Health)

	// API keys are tried first; requests without one fall through to the
	// bearer token check.
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.APIKeyAuth(s.APIKey), middleware.Auth(s.Token))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.APIKeyAuth(s.APIKey), middleware.Auth(s.Token), middleware.AdminOnly())
	}
	// Public reads still pick up the caller's identity when a token is sent,
	// so authors and staff can see unpublished drafts.
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, middleware.OptionalAuth(s.Token))
	}

	mux := http.NewServeMux()

	// Orchestrator probes
	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	// Public auth endpoints
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)

	// Authenticated account endpoints
	mux.Handle("POST /api/v1/auth/logout", authed(authHandler.Logout))
	mux.Handle("GET /api/v1/auth/me", authed(authHandler.Me))
	mux.Handle("POST /api/v1/auth/password", authed(authHandler.ChangePassword))

	// User management
	mux.Handle("POST /api/v1/users", adminOnly(userHandler.Create))
	mux.Handle("GET /api/v1/users", adminOnly(userHandler.List))
	mux.Handle("GET /api/v1/users/{userId}", authed(userHandler.Get))
	mux.Handle("PATCH /api/v1/users/{userId}", authed(userHandler.Update))
	mux.Handle("DELETE /api/v1/users/{userId}", adminOnly(userHandler.Delete))

	// Posts; reads are public but drafts stay hidden from outsiders
	mux.Handle("GET /api/v1/posts", public(postHandler.List))
	mux.Handle("GET /api/v1/posts/{postId}", public(postHandler.Get))
	mux.Handle("POST /api/v1/posts", authed(postHandler.Create))
	mux.Handle("PATCH /api/v1/posts/{postId}", authed(postHandler.Update))
	mux.Handle("POST /api/v1/posts/{postId}/publish", authed(postHandler.Publish))
	mux.Handle("DELETE /api/v1/posts/{postId}", authed(postHandler.Delete))

	// API keys
	mux.Handle("POST /api/v1/api-keys", authed(keyHandler.Create))
	mux.Handle("GET /api/v1/api-keys", authed(keyHandler.List))
	mux.Handle("DELETE /api/v1/api-keys/{keyId}", authed(keyHandler.Revoke))

	return mux
}
