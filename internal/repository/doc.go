// Package repository implements data access against SurrealDB.
//
// Each repository wraps the database.Database interface and translates
// between SurrealDB records and model types. Soft-deleted records are
// filtered out of every read path. The in-memory counterparts live in
// repository/memory; both drivers satisfy the interfaces declared in the
// service package.
//
// SurrealDB results arrive as loosely-typed maps, so each repository parses
// records with the helpers in helpers.go rather than struct decoding. Not
// found is signaled by a nil record, never an error, so callers can
// distinguish absence from failure.
package repository
