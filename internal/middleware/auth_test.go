package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latticekit/api/internal/model"
	"github.com/latticekit/api/pkg/jwt"
)

// stubValidator returns canned claims or a canned error
type stubValidator struct {
	claims *jwt.Claims
	err    error
}

func (s *stubValidator) ValidateAccessToken(token string) (*jwt.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// stubKeyAuth returns a canned user/key pair or an error
type stubKeyAuth struct {
	user *model.User
	key  *model.APIKey
	err  error
}

func (s *stubKeyAuth) Authenticate(ctx context.Context, rawKey string) (*model.User, *model.APIKey, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.user, s.key, nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var envelope model.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return envelope
}

func TestAuth_ValidToken(t *testing.T) {
	validator := &stubValidator{claims: &jwt.Claims{UserID: "user:alice", Role: "admin"}}

	var gotUserID, gotRole string
	handler := Auth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotRole = GetUserRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user:alice" {
		t.Errorf("user ID = %q, want user:alice", gotUserID)
	}
	if gotRole != "admin" {
		t.Errorf("role = %q, want admin", gotRole)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth(&stubValidator{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.ErrorCode != model.ErrCodeAuthentication {
		t.Errorf("error_code = %q", envelope.ErrorCode)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	handler := Auth(&stubValidator{})(okHandler())

	for _, header := range []string{"sometoken", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	handler := Auth(&stubValidator{err: jwt.ErrTokenExpired})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.ErrorCode != model.ErrCodeTokenExpired {
		t.Errorf("error_code = %q, want %q", envelope.ErrorCode, model.ErrCodeTokenExpired)
	}
}

func TestOptionalAuth(t *testing.T) {
	validator := &stubValidator{claims: &jwt.Claims{UserID: "user:alice", Role: "user"}}

	var gotUserID string
	handler := OptionalAuth(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
	}))

	// no header: passes through anonymous
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || gotUserID != "" {
		t.Errorf("anonymous: status = %d, userID = %q", rec.Code, gotUserID)
	}

	// valid header: populates identity
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotUserID != "user:alice" {
		t.Errorf("authenticated: userID = %q, want user:alice", gotUserID)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	keys := &stubKeyAuth{
		user: &model.User{ID: "user:bob", Role: model.UserRoleUser},
		key:  &model.APIKey{ID: "api_key:1", Prefix: "abc123"},
	}

	var gotUserID string
	var gotKey *model.APIKey
	handler := APIKeyAuth(keys)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotKey = GetAPIKey(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "lk_abc123_secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user:bob" {
		t.Errorf("user ID = %q, want user:bob", gotUserID)
	}
	if gotKey == nil || gotKey.ID != "api_key:1" {
		t.Errorf("API key = %+v, want api_key:1", gotKey)
	}
}

func TestAPIKeyAuth_NoHeader(t *testing.T) {
	handler := APIKeyAuth(&stubKeyAuth{})(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want pass-through 200", rec.Code)
	}
}

func TestAPIKeyAuth_Invalid(t *testing.T) {
	handler := APIKeyAuth(&stubKeyAuth{err: context.DeadlineExceeded})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "lk_bad_key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	validator := &stubValidator{claims: &jwt.Claims{UserID: "user:alice", Role: "user"}}
	handler := Chain(okHandler(), Auth(validator), AdminOnly())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer sometoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.ErrorCode != model.ErrCodeAccessDenied {
		t.Errorf("error_code = %q, want %q", envelope.ErrorCode, model.ErrCodeAccessDenied)
	}

	// admins pass
	validator.claims.Role = "admin"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserRoleKey, "admin")
	if !IsAdmin(ctx) {
		t.Error("expected admin")
	}
	if IsAdmin(context.Background()) {
		t.Error("empty context must not be admin")
	}
}
