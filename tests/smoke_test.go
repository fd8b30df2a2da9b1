// Package tests contains end-to-end acceptance tests for the Lattice API.
//
// These tests drive the full HTTP stack (routing, middleware, handlers,
// services) against the in-memory store driver, so they run with no
// external infrastructure:
//
//	go test ./tests/...
package tests

import (
	"net/http"
	"testing"

	"github.com/latticekit/api/internal/testing/apitest"
	"github.com/latticekit/api/internal/testing/fixtures"
	"github.com/latticekit/api/internal/testing/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
FEATURE: Test Infrastructure Smoke Test
DOMAIN: Infrastructure

ACCEPTANCE CRITERIA:
===================

AC-SMOKE-001: Environment Boot
  GIVEN a fresh test environment
  WHEN we serve a liveness request
  THEN the full middleware chain responds

AC-SMOKE-002: Fixture Creation
  GIVEN a test environment
  WHEN we create fixture users
  THEN they are persisted and retrievable through the API
*/

func newEnv(t *testing.T) (*apitest.Env, *fixtures.Factory) {
	t.Helper()
	env := apitest.New(t)
	return env, fixtures.New(env.Users, env.Posts, env.Keys)
}

// AC-SMOKE-001
func TestSmoke_EnvironmentBoots(t *testing.T) {
	env, _ := newEnv(t)

	rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/healthz").Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

// AC-SMOKE-002
func TestSmoke_FixturesVisibleThroughAPI(t *testing.T) {
	env, f := newEnv(t)

	user := f.CreateUser(t)
	token := env.AccessToken(t, user)

	rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/auth/me").
		WithBearer(token).
		Build())

	helpers.AssertStatus(t, rec, http.StatusOK)
	data := helpers.GetData(t, rec)
	require.Equal(t, user.ID, data["id"])
	assert.Equal(t, user.Email, data["email"])
}
