package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/latticekit/api/internal/database"
)

// Per-check deadline during readiness probing
const checkTimeout = 2 * time.Second

// CheckStatus values reported per dependency
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency. A nil error means healthy; the returned
// details map is included in the report.
type CheckFunc func(ctx context.Context) (map[string]interface{}, error)

// CheckResult is the outcome of a single dependency probe
type CheckResult struct {
	Status         string                 `json:"status"`
	ResponseTimeMS float64                `json:"response_time_ms"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Error          string                 `json:"error,omitempty"`
}

// HealthReport is the aggregate readiness outcome
type HealthReport struct {
	Ready  bool                   `json:"ready"`
	Checks map[string]CheckResult `json:"checks"`
}

// LivenessReport answers the liveness probe
type LivenessReport struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_seconds"`
}

type dependency struct {
	name     string
	critical bool
	check    CheckFunc
}

// HealthService runs liveness and readiness checks
type HealthService struct {
	version   string
	startedAt time.Time

	mu   sync.RWMutex
	deps []dependency
}

// NewHealthService creates a health service
func NewHealthService(version string) *HealthService {
	return &HealthService{
		version:   version,
		startedAt: time.Now(),
	}
}

// Register adds a dependency check. Critical failures make readiness fail;
// non-critical failures are reported but do not.
func (s *HealthService) Register(name string, critical bool, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps = append(s.deps, dependency{name: name, critical: critical, check: check})
}

// Liveness reports process health without touching dependencies
func (s *HealthService) Liveness() LivenessReport {
	return LivenessReport{
		Status:  StatusHealthy,
		Version: s.version,
		Uptime:  time.Since(s.startedAt).Seconds(),
	}
}

// Readiness probes all registered dependencies concurrently, each under its
// own deadline, and aggregates the results.
func (s *HealthService) Readiness(ctx context.Context) HealthReport {
	s.mu.RLock()
	deps := make([]dependency, len(s.deps))
	copy(deps, s.deps)
	s.mu.RUnlock()

	results := make([]CheckResult, len(deps))
	var wg sync.WaitGroup
	for i, dep := range deps {
		wg.Add(1)
		go func(i int, dep dependency) {
			defer wg.Done()
			results[i] = runCheck(ctx, dep.check)
		}(i, dep)
	}
	wg.Wait()

	report := HealthReport{Ready: true, Checks: make(map[string]CheckResult, len(deps))}
	for i, dep := range deps {
		report.Checks[dep.name] = results[i]
		if dep.critical && results[i].Status != StatusHealthy {
			report.Ready = false
		}
	}
	return report
}

func runCheck(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	details, err := check(ctx)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		return CheckResult{
			Status:         StatusUnhealthy,
			ResponseTimeMS: elapsed,
			Error:          err.Error(),
		}
	}
	return CheckResult{
		Status:         StatusHealthy,
		ResponseTimeMS: elapsed,
		Details:        details,
	}
}

// DatabaseCheck probes a SurrealDB connection
func DatabaseCheck(db database.Database) CheckFunc {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := db.Ping(ctx); err != nil {
			return nil, err
		}
		return map[string]interface{}{"driver": "surrealdb"}, nil
	}
}

// MemoryStoreCheck reports the in-memory driver, which is always available
func MemoryStoreCheck() CheckFunc {
	return func(ctx context.Context) (map[string]interface{}, error) {
		return map[string]interface{}{"driver": "memory"}, nil
	}
}

// RedisCheck probes a Redis connection
func RedisCheck(client *redis.Client) CheckFunc {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		return map[string]interface{}{"driver": "redis"}, nil
	}
}

// HTTPCheck probes an external HTTP dependency. Any status below 500 counts
// as healthy; the dependency answering at all is what matters.
func HTTPCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (map[string]interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("endpoint returned %d", resp.StatusCode)
		}
		return map[string]interface{}{"url": url, "status_code": resp.StatusCode}, nil
	}
}
