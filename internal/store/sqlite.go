package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx,
// letting the same query code back both a plain store and a
// transaction-scoped one.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// SQLiteStore implements TxKV over a single SQLite table. Each row is one
// collection: a text value plus a monotonically increasing revision.
type SQLiteStore struct {
	db *sql.DB
}

var _ TxKV = (*SQLiteStore)(nil)

// Open opens (creating if needed) a SQLite-backed store at path. If path
// is ":memory:", uses an in-memory database. Sets WAL mode and runs
// migrations, including the legacy key consolidation.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, int64, error) {
	return get(ctx, s.db, key)
}

func (s *SQLiteStore) Put(ctx context.Context, key, value string, expectedRev int64) (int64, error) {
	return put(ctx, s.db, key, value, expectedRev)
}

func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx KV) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &txStore{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// txStore is the transaction-scoped KV handed to WithinTx callbacks.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Get(ctx context.Context, key string) (string, int64, error) {
	return get(ctx, t.tx, key)
}

func (t *txStore) Put(ctx context.Context, key, value string, expectedRev int64) (int64, error) {
	return put(ctx, t.tx, key, value, expectedRev)
}

func get(ctx context.Context, conn DBTX, key string) (string, int64, error) {
	row := conn.QueryRowContext(ctx,
		`SELECT value, revision FROM collections WHERE key = ?`, key)

	var value string
	var rev int64
	if err := row.Scan(&value, &rev); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, fmt.Errorf("collection %q: %w", key, ErrNotFound)
		}
		return "", 0, fmt.Errorf("reading collection %q: %w", key, err)
	}
	return value, rev, nil
}

func put(ctx context.Context, conn DBTX, key, value string, expectedRev int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if expectedRev == 0 {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO collections (key, value, revision, updated_at) VALUES (?, ?, 1, ?)`,
			key, value, now)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, fmt.Errorf("collection %q exists: %w", key, ErrRevisionConflict)
			}
			return 0, fmt.Errorf("inserting collection %q: %w", key, err)
		}
		return 1, nil
	}

	res, err := conn.ExecContext(ctx,
		`UPDATE collections SET value = ?, revision = revision + 1, updated_at = ?
		 WHERE key = ? AND revision = ?`,
		value, now, key, expectedRev)
	if err != nil {
		return 0, fmt.Errorf("updating collection %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("updating collection %q: %w", key, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("collection %q: %w", key, ErrRevisionConflict)
	}
	return expectedRev + 1, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures as plain errors;
	// matching on the message keeps the store free of driver-specific types.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
