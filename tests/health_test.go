package tests

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/latticekit/api/internal/testing/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
FEATURE: Health Probes and Correlation
DOMAIN: Operations

ACCEPTANCE CRITERIA:
===================

AC-OPS-001: Liveness
  GIVEN a running process
  WHEN /healthz is probed
  THEN it always answers 200 without touching dependencies

AC-OPS-002: Readiness
  GIVEN all critical dependencies are healthy
  WHEN /readyz is probed
  THEN it answers 200 with per-check results

AC-OPS-003: Readiness Degraded
  GIVEN a failing critical dependency
  WHEN /readyz is probed
  THEN it answers 503 and names the failing check

AC-OPS-004: Correlation ID Propagation
  GIVEN a client-supplied X-Correlation-ID header
  WHEN any request is served
  THEN the same ID is echoed on the response
  AND stamped into error envelopes
*/

// AC-OPS-001
func TestHealth_Liveness(t *testing.T) {
	env, _ := newEnv(t)

	rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/healthz").Build())
	helpers.AssertStatus(t, rec, http.StatusOK)

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	helpers.DecodeResponse(t, rec, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "test", body.Version)
}

// AC-OPS-002
func TestHealth_Readiness(t *testing.T) {
	env, _ := newEnv(t)

	rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/readyz").Build())
	helpers.AssertStatus(t, rec, http.StatusOK)

	var report struct {
		Ready  bool `json:"ready"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	helpers.DecodeResponse(t, rec, &report)
	require.True(t, report.Ready)
	assert.Equal(t, "healthy", report.Checks["store"].Status)
}

// AC-OPS-003
func TestHealth_ReadinessDegraded(t *testing.T) {
	env, _ := newEnv(t)
	env.Health.Register("cache", true, func(ctx context.Context) (map[string]interface{}, error) {
		return nil, errors.New("connection refused")
	})

	rec := env.Serve(helpers.NewRequest(t, http.MethodGet, "/readyz").Build())
	helpers.AssertStatus(t, rec, http.StatusServiceUnavailable)

	var report struct {
		Ready  bool `json:"ready"`
		Checks map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	helpers.DecodeResponse(t, rec, &report)
	require.False(t, report.Ready)
	assert.Equal(t, "unhealthy", report.Checks["cache"].Status)
	assert.Contains(t, report.Checks["cache"].Error, "connection refused")
}

// AC-OPS-004
func TestHealth_CorrelationIDPropagation(t *testing.T) {
	env, _ := newEnv(t)

	ok := env.Serve(helpers.NewRequest(t, http.MethodGet, "/healthz").
		WithHeader("X-Correlation-ID", "corr-acceptance-1").
		Build())
	helpers.AssertStatus(t, ok, http.StatusOK)
	assert.Equal(t, "corr-acceptance-1", ok.Header().Get("X-Correlation-ID"))

	failed := env.Serve(helpers.NewRequest(t, http.MethodGet, "/api/v1/auth/me").
		WithHeader("X-Correlation-ID", "corr-acceptance-2").
		Build())
	envelope := helpers.AssertError(t, failed, http.StatusUnauthorized, "AUTHENTICATION_FAILED")
	assert.Equal(t, "corr-acceptance-2", envelope.CorrelationID)
	assert.Equal(t, "corr-acceptance-2", failed.Header().Get("X-Correlation-ID"))
}
