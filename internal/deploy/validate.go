package deploy

import (
	"fmt"
	"strings"
)

// Findings is the structured outcome of validating a deployment profile
type Findings struct {
	Target      Target   `json:"target"`
	Environment string   `json:"environment"`
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Validate checks the live environment against a profile's contract. getenv
// is injected so callers can validate candidate environments, not just the
// process's own.
func Validate(p Profile, getenv func(string) string) Findings {
	f := Findings{
		Target:      p.Target,
		Environment: p.Environment,
		Valid:       true,
	}

	fail := func(format string, args ...interface{}) {
		f.Errors = append(f.Errors, fmt.Sprintf(format, args...))
		f.Valid = false
	}
	warn := func(format string, args ...interface{}) {
		f.Warnings = append(f.Warnings, fmt.Sprintf(format, args...))
	}

	for _, name := range p.RequiredEnv {
		if getenv(name) == "" {
			fail("missing required environment variable: %s", name)
		}
	}

	if password := getenv("DB_PASSWORD"); password != "" && len(password) < p.Rules.MinSecretLength {
		fail("DB_PASSWORD shorter than %d characters", p.Rules.MinSecretLength)
	}

	if !p.Rules.AllowDebugLog && strings.EqualFold(getenv("LOG_LEVEL"), "debug") {
		fail("LOG_LEVEL=debug is not permitted in %s", p.Environment)
	}

	if !p.Rules.AllowMemoryStore && getenv("STORE_DRIVER") == "memory" {
		fail("STORE_DRIVER=memory is not permitted in %s: data would not survive restarts", p.Environment)
	}

	if p.Rules.RequireHealthChecks && getenv("DISABLE_HEALTH_CHECKS") != "" {
		fail("health probes cannot be disabled on %s", p.Target)
	}

	if getenv("REDIS_URL") == "" {
		warn("REDIS_URL not set: cache readiness check will be skipped")
	}

	return f
}
