// Package migrate applies versioned schema migrations to SurrealDB.
//
// Migration files are embedded .surql scripts named NNNN_name.surql and
// applied in lexical order. Applied versions are recorded in the
// schema_migration table so Up is idempotent. The memory store driver does
// not use migrations.
package migrate

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/latticekit/api/internal/database"
)

//go:embed migrations/*.surql
var migrationFS embed.FS

// Migration is a single versioned schema script.
type Migration struct {
	Version  string // e.g. "0001"
	Name     string // e.g. "user"
	Script   string
	Checksum string // sha256 of the script, recorded when applied
}

// Status describes one migration's applied state.
type Status struct {
	Version string
	Name    string
	Applied bool
}

// Migrator applies migrations against a database.
type Migrator struct {
	db     database.Database
	logger *slog.Logger
}

// New creates a Migrator.
func New(db database.Database, logger *slog.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Load parses the embedded migration scripts in version order.
func Load() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".surql") {
			continue
		}

		base := strings.TrimSuffix(name, ".surql")
		version, rest, ok := strings.Cut(base, "_")
		if !ok || len(version) != 4 {
			return nil, fmt.Errorf("migration %q: name must be NNNN_name.surql", name)
		}

		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", name, err)
		}

		sum := sha256.Sum256(data)
		migrations = append(migrations, Migration{
			Version:  version,
			Name:     rest,
			Script:   string(data),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %q", migrations[i].Version)
		}
	}

	return migrations, nil
}

// Up applies all pending migrations in order. Each migration's statements run
// in a single atomic batch together with the version record, so a failed
// script leaves no partial version entry.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return 0, err
	}

	migrations, err := Load()
	if err != nil {
		return 0, err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		batch := database.NewAtomicBatch()
		for _, stmt := range splitStatements(mig.Script) {
			batch.Add(stmt, nil)
		}
		batch.Add(
			`CREATE schema_migration CONTENT { version: $version, name: $name, checksum: $checksum, applied_on: time::now() }`,
			map[string]interface{}{"version": mig.Version, "name": mig.Name, "checksum": mig.Checksum},
		)

		if err := batch.Execute(ctx, m.db); err != nil {
			return count, fmt.Errorf("apply migration %s_%s: %w", mig.Version, mig.Name, err)
		}

		m.logger.Info("migration applied",
			slog.String("version", mig.Version),
			slog.String("name", mig.Name),
		)
		count++
	}

	return count, nil
}

// Status reports each known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	migrations, err := Load()
	if err != nil {
		return nil, err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(migrations))
	for _, mig := range migrations {
		_, ok := applied[mig.Version]
		statuses = append(statuses, Status{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: ok,
		})
	}
	return statuses, nil
}

// Verify compares the checksum recorded for each applied migration against
// the embedded script, catching edits to scripts that already ran. Records
// written before checksums were tracked are skipped.
func (m *Migrator) Verify(ctx context.Context) error {
	migrations, err := Load()
	if err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	known := make(map[string]Migration, len(migrations))
	for _, mig := range migrations {
		known[mig.Version] = mig
	}

	var drifted []string
	for version, recorded := range applied {
		mig, ok := known[version]
		if !ok {
			drifted = append(drifted, version+" (no matching script)")
			continue
		}
		if recorded != "" && recorded != mig.Checksum {
			drifted = append(drifted, version+"_"+mig.Name)
		}
	}
	if len(drifted) > 0 {
		sort.Strings(drifted)
		return fmt.Errorf("migration checksum mismatch: %s", strings.Join(drifted, ", "))
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	query := `
		DEFINE TABLE IF NOT EXISTS schema_migration SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS version ON schema_migration TYPE string;
		DEFINE FIELD IF NOT EXISTS name ON schema_migration TYPE string;
		DEFINE FIELD IF NOT EXISTS checksum ON schema_migration TYPE string DEFAULT "";
		DEFINE FIELD IF NOT EXISTS applied_on ON schema_migration TYPE datetime DEFAULT time::now();
		DEFINE INDEX IF NOT EXISTS schema_migration_version_unique ON schema_migration FIELDS version UNIQUE;
	`
	if err := m.db.Execute(ctx, query, nil); err != nil {
		return fmt.Errorf("ensure schema_migration table: %w", err)
	}
	return nil
}

// appliedVersions returns the recorded versions mapped to their stored
// checksums (empty for records written before checksums existed).
func (m *Migrator) appliedVersions(ctx context.Context) (map[string]string, error) {
	results, err := m.db.Query(ctx, `SELECT version, checksum FROM schema_migration`, nil)
	if err != nil {
		return nil, fmt.Errorf("load applied versions: %w", err)
	}

	applied := make(map[string]string)
	for _, result := range results {
		resp, ok := result.(map[string]interface{})
		if !ok {
			continue
		}
		rows, ok := resp["result"].([]interface{})
		if !ok {
			continue
		}
		for _, row := range rows {
			record, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			version, ok := record["version"].(string)
			if !ok {
				continue
			}
			checksum, _ := record["checksum"].(string)
			applied[version] = checksum
		}
	}
	return applied, nil
}

// splitStatements breaks a script into individual statements, stripping
// comment lines so batch wrapping stays valid.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		lines = append(lines, line)
	}

	statements := make([]string, 0)
	for _, raw := range strings.Split(strings.Join(lines, "\n"), ";") {
		stmt := strings.TrimSpace(raw)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
