package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB is the production Database implementation, backed by the
// official driver over a websocket session.
type SurrealDB struct {
	db  *surrealdb.DB
	cfg Config
}

// NewSurrealDB creates an unconnected handle; call Connect before use.
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{cfg: cfg}
}

// Connect dials the server, authenticates, and selects the configured
// namespace and database.
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.cfg.Host, s.cfg.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.cfg.User,
		Password: s.cfg.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.cfg.Namespace, s.cfg.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close tears down the websocket session.
func (s *SurrealDB) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close(context.Background())
}

// Ping verifies the session is alive; the readiness probe calls this.
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query runs a (possibly multi-statement) query. Each statement's output is
// returned as a {status, result} map so per-statement errors surface instead
// of being swallowed by the batch.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("%w: %s", ErrQuery, r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return output, nil
}

// QueryOne runs a query and unwraps the first record of the first statement.
// ErrNotFound is returned when the statement matched nothing.
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return unwrapFirst(results[0])
}

// Execute runs a mutation, discarding any returned records.
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// unwrapFirst digs the first record out of a {status, result} statement
// envelope. Scalar results (e.g. count()) pass through unchanged.
func unwrapFirst(statement interface{}) (interface{}, error) {
	envelope, ok := statement.(map[string]interface{})
	if !ok {
		return statement, nil
	}
	if status, ok := envelope["status"].(string); !ok || status != "OK" {
		return statement, nil
	}

	switch result := envelope["result"].(type) {
	case []interface{}:
		if len(result) == 0 {
			return nil, ErrNotFound
		}
		return result[0], nil
	default:
		return result, nil
	}
}
