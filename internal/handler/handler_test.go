package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/latticekit/api/internal/audit"
	"github.com/latticekit/api/internal/middleware"
	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/internal/repository/memory"
	"github.com/latticekit/api/internal/service"
	"github.com/latticekit/api/pkg/jwt"
)

var testRSAKey *rsa.PrivateKey

func init() {
	// Shared across tests; generating a key per test is needlessly slow
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	testRSAKey = key
}

const testPassword = "Str0ng!Passw0rd"

// fixture wires the full route table onto in-memory storage
type fixture struct {
	mux      *http.ServeMux
	auth     *service.AuthService
	users    *service.UserService
	userRepo *memory.UserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auditLog := audit.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	jwtService := jwt.NewTestService(testRSAKey, "api.latticekit.dev", 15*time.Minute)

	userRepo := memory.NewUserRepository()
	tokens := service.NewTokenService(service.TokenServiceConfig{
		JWTService:  jwtService,
		SessionRepo: memory.NewSessionRepository(),
	})
	auth := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:     userRepo,
		TokenService: tokens,
		AuditLog:     auditLog,
	})
	users := service.NewUserService(userRepo, auditLog)
	posts := service.NewPostService(memory.NewPostRepository())
	keys := service.NewAPIKeyService(memory.NewAPIKeyRepository(), userRepo, auditLog)

	health := service.NewHealthService("test")
	health.Register("store", true, service.MemoryStoreCheck())

	mux := NewMux(Services{
		Auth:   auth,
		Token:  tokens,
		User:   users,
		Post:   posts,
		APIKey: keys,
		Health: health,
	})

	return &fixture{mux: mux, auth: auth, users: users, userRepo: userRepo}
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	middleware.Chain(f.mux, middleware.CorrelationID).ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its tokens
func (f *fixture) register(t *testing.T, username, email string) (user map[string]interface{}, access, refresh string) {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": testPassword,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			User  map[string]interface{} `json:"user"`
			Token struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return envelope.Data.User, envelope.Data.Token.AccessToken, envelope.Data.Token.RefreshToken
}

// registerAdmin registers a user then promotes it directly in storage
func (f *fixture) registerAdmin(t *testing.T) (userID, access string) {
	t.Helper()

	user, _, _ := f.register(t, "rootadmin", "rootadmin@example.com")
	userID = user["id"].(string)

	stored, err := f.userRepo.GetByID(context.Background(), userID)
	if err != nil || stored == nil {
		t.Fatalf("load admin: %v", err)
	}
	stored.Role = model.UserRoleAdmin
	if err := f.userRepo.Update(context.Background(), stored); err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	// fresh login picks up the admin role in the claims
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"identifier": "rootadmin@example.com",
		"password":   testPassword,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status = %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Token struct {
				AccessToken string `json:"access_token"`
			} `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return userID, envelope.Data.Token.AccessToken
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var envelope model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return envelope
}
