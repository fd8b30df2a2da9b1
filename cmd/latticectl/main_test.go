package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/latticekit/api/pkg/jwt"
)

// captureStdout runs fn with os.Stdout redirected and returns what it printed.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()

	_ = w.Close()
	os.Stdout = old
	out, readErr := io.ReadAll(r)
	if readErr != nil {
		t.Fatalf("reading captured output: %v", readErr)
	}
	if runErr != nil {
		t.Fatalf("command error: %v", runErr)
	}
	return strings.TrimSpace(string(out))
}

func TestRunKeygen(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")

	if err := runKeygen([]string{"-private", priv, "-public", pub}); err != nil {
		t.Fatalf("runKeygen() error: %v", err)
	}
	for _, path := range []string{priv, pub} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}

	// refuses to clobber existing keys unless forced
	if err := runKeygen([]string{"-private", priv, "-public", pub}); err == nil {
		t.Error("expected an error when key files already exist")
	}
	if err := runKeygen([]string{"-private", priv, "-public", pub, "-force"}); err != nil {
		t.Errorf("runKeygen(-force) error: %v", err)
	}
}

func TestRunToken_DefaultsMatchServerConfig(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	if err := runKeygen([]string{"-private", priv, "-public", pub}); err != nil {
		t.Fatalf("runKeygen() error: %v", err)
	}

	token := captureStdout(t, func() error {
		return runToken([]string{"-key", priv})
	})
	if token == "" {
		t.Fatal("expected a token on stdout")
	}

	// a verifier configured like the server accepts the minted token
	verifier, err := jwt.NewService(jwt.Config{PublicKeyPath: pub, Issuer: "api.latticekit.dev"})
	if err != nil {
		t.Fatalf("NewService() error: %v", err)
	}
	claims, err := verifier.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
}
