package store

import (
	"context"
	"errors"
)

// Canonical collection keys. All persisted state lives under these keys;
// the legacy ad hoc namespace is consolidated into them by Migrate.
const (
	KeyTasks          = "tasks"
	KeyHistory        = "history"
	KeyPlansActive    = "plans_active"
	KeyPlansCompleted = "plans_completed"
	KeyProvenance     = "provenance"
)

var (
	// ErrNotFound indicates the requested key has never been written.
	ErrNotFound = errors.New("collection not found")

	// ErrRevisionConflict indicates a Put carried a stale expected
	// revision: another writer committed since the caller's read.
	ErrRevisionConflict = errors.New("collection revision conflict")
)

// KV is a durable, keyed, text-serialized store with optimistic
// concurrency. Values are opaque to the store; callers serialize whole
// collections as text. A write is durable once Put returns.
type KV interface {
	// Get returns the value and current revision for key, or ErrNotFound.
	Get(ctx context.Context, key string) (value string, rev int64, err error)

	// Put writes value under key. expectedRev must match the stored
	// revision (0 for a key that does not exist yet) or the write fails
	// with ErrRevisionConflict. Returns the new revision.
	Put(ctx context.Context, key, value string, expectedRev int64) (int64, error)
}

// TxKV extends KV with multi-key atomic batches. The minimal store
// contract offers no cross-key guarantee; operations that need one (the
// plan lifecycle move) require a TxKV.
type TxKV interface {
	KV

	// WithinTx runs fn against a transaction-scoped KV. Either every
	// write in fn commits or none does.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx KV) error) error
}
