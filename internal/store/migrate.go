package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// schemaVersion is the current store schema. Bump when the envelope shape
// or the canonical key set changes, and add a migration step below.
const schemaVersion = 1

const metaKeySchemaVersion = "schema_version"

// legacyKeys maps the ad hoc key namespace used by earlier iterations to
// the canonical collection keys. Legacy values are raw JSON arrays with
// no envelope.
var legacyKeys = map[string]string{
	"studyTasks":       KeyTasks,
	"studyHistory":     KeyHistory,
	"activePlans":      KeyPlansActive,
	"completedPlans":   KeyPlansCompleted,
	"planTasksHistory": KeyProvenance,
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		revision   INTEGER NOT NULL DEFAULT 1 CHECK(revision > 0),
		updated_at TEXT NOT NULL
	)`,
}

// Migrate creates the schema and runs the one-shot legacy key
// consolidation. Idempotent: a store already at schemaVersion is left
// untouched.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateLegacyKeys(db); err != nil {
		return fmt.Errorf("consolidating legacy keys: %w", err)
	}
	return nil
}

// migrateLegacyKeys moves every legacy collection under its canonical key,
// wrapping the raw array value in a versioned envelope, then stamps
// schema_version. Runs inside one transaction so a crash mid-migration
// leaves the legacy namespace intact.
func migrateLegacyKeys(db *sql.DB) error {
	ctx := context.Background()

	var stamped string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM collections WHERE key = ?`, metaKeySchemaVersion).Scan(&stamped)
	if err == nil {
		return nil // already migrated
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("reading schema version: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)

	for legacy, canonical := range legacyKeys {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM collections WHERE key = ?`, legacy).Scan(&raw)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading legacy key %q: %w", legacy, err)
		}

		wrapped, err := wrapLegacyValue(raw)
		if err != nil {
			return fmt.Errorf("wrapping legacy key %q: %w", legacy, err)
		}

		// The canonical key wins if both namespaces were ever written;
		// the legacy row is dropped either way so it can never drift again.
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO collections (key, value, revision, updated_at) VALUES (?, ?, 1, ?)`,
			canonical, wrapped, now); err != nil {
			return fmt.Errorf("writing canonical key %q: %w", canonical, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM collections WHERE key = ?`, legacy); err != nil {
			return fmt.Errorf("deleting legacy key %q: %w", legacy, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO collections (key, value, revision, updated_at) VALUES (?, ?, 1, ?)`,
		metaKeySchemaVersion, fmt.Sprintf("%d", schemaVersion), now); err != nil {
		return fmt.Errorf("stamping schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	committed = true
	return nil
}

// wrapLegacyValue converts a raw legacy JSON array into the versioned
// envelope. Values that already carry an envelope pass through unchanged.
func wrapLegacyValue(raw string) (string, error) {
	var probe struct {
		Schema *int `json:"schema"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err == nil && probe.Schema != nil {
		return raw, nil
	}

	var items json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return "", fmt.Errorf("legacy value is not valid JSON: %w", err)
	}

	env := struct {
		Schema int             `json:"schema"`
		Items  json.RawMessage `json:"items"`
	}{Schema: schemaVersion, Items: items}

	out, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}
	return string(out), nil
}
