// Package database is the SurrealDB access layer for Lattice.
//
// Repositories talk to the Database interface rather than the driver, so
// the SurrealDB client stays confined to this package. The in-memory store
// driver does not use this package at all.
//
// Three query shapes cover everything the repositories do:
//   - Query: statements whose results the caller iterates (lists)
//   - QueryOne: statements expected to yield exactly one record
//   - Execute: mutations where only success or failure matters
//
// Multi-statement writes that must land together go through AtomicBatch
// (see transaction.go), which wraps the accumulated statements in a single
// BEGIN/COMMIT TRANSACTION round trip. There is no connection-level
// transaction state to leak.
//
// Failures map onto sentinel errors checked with errors.Is:
//
//	if errors.Is(err, database.ErrNotFound) { ... }
package database

import (
	"context"
	"errors"
)

var (
	// ErrNotFound reports that no record matched the query.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate reports a unique index violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection reports that the database is unreachable or the
	// session was never established.
	ErrConnection = errors.New("database connection error")

	// ErrQuery reports a statement the database rejected.
	ErrQuery = errors.New("query error")
)

// Database is the driver surface the repositories and migrator depend on.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds SurrealDB connection settings.
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
