package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testIssuer = "api.latticekit.dev"

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return key
}

func TestService_SignAndValidate(t *testing.T) {
	svc := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)

	token, err := svc.Sign(Claims{
		Subject:  "user:abc",
		UserID:   "user:abc",
		Email:    "alice@example.com",
		Username: "alice",
		Role:     "user",
	})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected token with 3 segments, got %d", len(parts))
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.UserID != "user:abc" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user:abc")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.Issuer != testIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, testIssuer)
	}
	if claims.ExpiresAt == 0 || claims.IssuedAt == 0 {
		t.Error("expected exp and iat to be stamped")
	}
}

func TestService_Validate_Expired(t *testing.T) {
	svc := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)

	token, err := svc.Sign(Claims{
		Subject:   "user:abc",
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	_, err = svc.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate() error = %v, want ErrTokenExpired", err)
	}
}

func TestService_Validate_WrongIssuer(t *testing.T) {
	signer := NewTestService(newTestKey(t), "other.example.com", 15*time.Minute)
	key := signer.privateKey
	verifier := NewTestService(key, testIssuer, 15*time.Minute)

	token, err := signer.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
	}
}

func TestService_Validate_WrongKey(t *testing.T) {
	signer := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)
	verifier := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)

	token, err := signer.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if _, err := verifier.Validate(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Validate() error = %v, want ErrInvalidSignature", err)
	}
}

func TestService_Validate_TamperedPayload(t *testing.T) {
	svc := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)

	token, err := svc.Sign(Claims{Subject: "user:abc", Role: "user"})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := base64URLEncode([]byte(`{"sub":"user:abc","role":"admin","iss":"` + testIssuer + `"}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := svc.Validate(tampered); err == nil {
		t.Error("expected tampered token to fail validation")
	}
}

func TestService_Validate_Malformed(t *testing.T) {
	svc := NewTestService(newTestKey(t), testIssuer, 15*time.Minute)

	for _, token := range []string{"", "abc", "a.b", "a.b.c.d", "!!!.???.###"} {
		if _, err := svc.Validate(token); err == nil {
			t.Errorf("expected malformed token %q to fail validation", token)
		}
	}
}

func TestService_Sign_RequiresPrivateKey(t *testing.T) {
	svc := &Service{issuer: testIssuer, expiration: 15 * time.Minute}
	if _, err := svc.Sign(Claims{Subject: "user:abc"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Sign() error = %v, want ErrInvalidKey", err)
	}
}

func TestClaims_IsAdmin(t *testing.T) {
	if !(&Claims{Role: "admin"}).IsAdmin() {
		t.Error("expected admin role to report IsAdmin")
	}
	if (&Claims{Role: "user"}).IsAdmin() {
		t.Error("expected user role to not report IsAdmin")
	}
}

func TestClaims_Valid_NotYetValid(t *testing.T) {
	claims := &Claims{NotBefore: time.Now().Add(time.Hour).Unix()}
	if err := claims.Valid(); !errors.Is(err, ErrTokenNotYetValid) {
		t.Errorf("Valid() error = %v, want ErrTokenNotYetValid", err)
	}
}

func TestGenerateKeyPair_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(privPath, pubPath); err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}

	info, err := os.Stat(privPath)
	if err != nil {
		t.Fatalf("private key not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	svc, err := NewService(Config{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
		Issuer:         testIssuer,
		ExpirationMins: 15,
	})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}

	token, err := svc.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if _, err := svc.Validate(token); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestNewService_PublicKeyOnly(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	if err := GenerateKeyPair(privPath, pubPath); err != nil {
		t.Fatalf("GenerateKeyPair() error: %v", err)
	}

	signer, err := NewService(Config{
		PrivateKeyPath: privPath,
		Issuer:         testIssuer,
		ExpirationMins: 15,
	})
	if err != nil {
		t.Fatalf("NewService() signer error: %v", err)
	}

	verifier, err := NewService(Config{
		PublicKeyPath:  pubPath,
		Issuer:         testIssuer,
		ExpirationMins: 15,
	})
	if err != nil {
		t.Fatalf("NewService() verifier error: %v", err)
	}

	token, err := signer.Sign(Claims{Subject: "user:abc"})
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if _, err := verifier.Validate(token); err != nil {
		t.Errorf("verifier Validate() error: %v", err)
	}
	if _, err := verifier.Sign(Claims{Subject: "user:abc"}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("verifier Sign() error = %v, want ErrInvalidKey", err)
	}
}

func TestBase64URLRoundTrip(t *testing.T) {
	for _, input := range []string{"", "a", "ab", "abc", "abcd", "hello world"} {
		encoded := base64URLEncode([]byte(input))
		if strings.ContainsAny(encoded, "=+/") {
			t.Errorf("encoding of %q contains padding or non-url chars: %q", input, encoded)
		}
		decoded, err := base64URLDecode(encoded)
		if err != nil {
			t.Errorf("decode of %q failed: %v", encoded, err)
			continue
		}
		if string(decoded) != input {
			t.Errorf("round trip of %q = %q", input, decoded)
		}
	}
}
