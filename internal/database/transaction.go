package database

import (
	"context"
	"fmt"
	"strings"
)

// AtomicBatch accumulates statements and executes them in one
// BEGIN/COMMIT TRANSACTION round trip: everything lands or nothing does.
//
// Variables are namespaced per statement ($version becomes $s3_version) so
// statements from different call sites cannot clobber each other's
// bindings:
//
//	batch := database.NewAtomicBatch()
//	batch.Add("DEFINE TABLE post SCHEMAFULL", nil)
//	batch.Add("CREATE schema_migration CONTENT { version: $version }", vars)
//	err := batch.Execute(ctx, db)
//
// Note there is no isolation between Add calls; the batch only exists
// client-side until Execute.
type AtomicBatch struct {
	statements []string
	vars       map[string]interface{}
}

// NewAtomicBatch creates an empty batch.
func NewAtomicBatch() *AtomicBatch {
	return &AtomicBatch{vars: make(map[string]interface{})}
}

// Add appends a statement, rewriting its variable references to namespaced
// names before merging them into the batch bindings.
func (b *AtomicBatch) Add(query string, vars map[string]interface{}) *AtomicBatch {
	rewritten := query
	for name, value := range vars {
		scoped := fmt.Sprintf("s%d_%s", len(b.statements), name)
		rewritten = strings.ReplaceAll(rewritten, "$"+name, "$"+scoped)
		b.vars[scoped] = value
	}
	b.statements = append(b.statements, rewritten)
	return b
}

// Len reports how many statements the batch holds.
func (b *AtomicBatch) Len() int {
	return len(b.statements)
}

// Execute wraps the accumulated statements in a transaction and runs them.
// An empty batch is a no-op.
func (b *AtomicBatch) Execute(ctx context.Context, db Database) error {
	if len(b.statements) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		if !strings.HasSuffix(strings.TrimSpace(stmt), ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	_, err := db.Query(ctx, sb.String(), b.vars)
	return err
}
