package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGet_MissingKey(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rev, err := s.Put(ctx, KeyTasks, `{"schema":1,"items":[]}`, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	value, rev, err := s.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, `{"schema":1,"items":[]}`, value)
	assert.Equal(t, int64(1), rev)

	rev, err = s.Put(ctx, KeyTasks, `{"schema":1,"items":[1]}`, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}

func TestPut_RevisionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, KeyHistory, "a", 0)
	require.NoError(t, err)

	// Stale writer: read revision 1, but someone else commits revision 2.
	_, err = s.Put(ctx, KeyHistory, "b", 1)
	require.NoError(t, err)

	_, err = s.Put(ctx, KeyHistory, "c", 1)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	// The losing write must not have clobbered anything.
	value, rev, err := s.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Equal(t, "b", value)
	assert.Equal(t, int64(2), rev)
}

func TestPut_InsertConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, KeyProvenance, "a", 0)
	require.NoError(t, err)

	// Second create-from-scratch write loses.
	_, err = s.Put(ctx, KeyProvenance, "b", 0)
	assert.ErrorIs(t, err, ErrRevisionConflict)
}

func TestWithinTx_RollsBackAllWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx KV) error {
		if _, err := tx.Put(ctx, KeyPlansCompleted, "done", 0); err != nil {
			return err
		}
		if _, err := tx.Put(ctx, KeyPlansActive, "active", 0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, _, err = s.Get(ctx, KeyPlansCompleted)
	assert.ErrorIs(t, err, ErrNotFound, "rolled-back write must not be visible")
	_, _, err = s.Get(ctx, KeyPlansActive)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithinTx_CommitsAllWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, tx KV) error {
		if _, err := tx.Put(ctx, KeyPlansCompleted, "done", 0); err != nil {
			return err
		}
		_, err := tx.Put(ctx, KeyPlansActive, "active", 0)
		return err
	})
	require.NoError(t, err)

	value, _, err := s.Get(ctx, KeyPlansCompleted)
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestCollection_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type item struct {
		Name string `json:"name"`
	}

	items, rev, err := LoadCollection[item](ctx, s, KeyTasks)
	require.NoError(t, err)
	assert.Empty(t, items, "unwritten collection loads empty")
	assert.Equal(t, int64(0), rev)

	rev, err = SaveCollection(ctx, s, KeyTasks, []item{{Name: "a"}, {Name: "b"}}, rev)
	require.NoError(t, err)

	items, rev2, err := LoadCollection[item](ctx, s, KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, rev, rev2)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
}

func TestMigrate_ConsolidatesLegacyKeys(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	// Seed a pre-consolidation store: legacy keys holding raw arrays.
	_, err = db.Exec(migrations[0])
	require.NoError(t, err)
	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range map[string]string{
		"studyTasks":   `[{"id":"t1","text":"Derivatives","hours":2}]`,
		"studyHistory": `[{"taskId":"t1","counted":true}]`,
	} {
		_, err = db.Exec(
			`INSERT INTO collections (key, value, revision, updated_at) VALUES (?, ?, 1, ?)`,
			key, value, now)
		require.NoError(t, err)
	}

	require.NoError(t, Migrate(db))

	s := &SQLiteStore{db: db}
	ctx := context.Background()

	value, _, err := s.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schema":1,"items":[{"id":"t1","text":"Derivatives","hours":2}]}`, value)

	value, _, err = s.Get(ctx, KeyHistory)
	require.NoError(t, err)
	assert.Contains(t, value, `"counted":true`)

	// Legacy rows are gone.
	_, _, err = s.Get(ctx, "studyTasks")
	assert.ErrorIs(t, err, ErrNotFound)

	// Second run is a no-op.
	require.NoError(t, Migrate(db))
	value2, rev, err := s.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.Equal(t, value, value2)
	assert.Equal(t, int64(1), rev)
}
