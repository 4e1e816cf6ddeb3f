package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ledgerhouse/internal/common"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
)

func newTestStore(t *testing.T, tables ...string) *SQLStore {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	store, err := NewSQLiteStore(context.Background(), ":memory:", logger, tables...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func rowSet(items ...string) [][]byte {
	rows := make([][]byte, 0, len(items))
	for _, s := range items {
		rows = append(rows, []byte(s))
	}
	return rows
}

func TestNewSQLiteStore_MigratesEachStoreIndependently(t *testing.T) {
	ctx := context.Background()

	// Each store runs its own migration provider; two stores in one
	// process must not interfere with each other.
	first := newTestStore(t, "accounts")
	second := newTestStore(t, "accounts")

	_, err := first.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)

	v, err := second.Version(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	snap, err := first.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Len(t, snap.Rows, 1)
}

func TestSQLStore_NewTableStartsAtVersionZero(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	v, err := store.Version(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Empty(t, snap.Rows)
}

func TestSQLStore_UnknownTable(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	_, err := store.Version(ctx, "ghosts")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.Append(ctx, "ghosts", rowSet(`{"a":1}`))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLStore_AppendCarriesPreviousRowsForward(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	v1, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := store.Append(ctx, "accounts", rowSet(`{"id":"b"}`, `{"id":"c"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, `{"id":"a"}`, string(snap.Rows[0]))
	assert.Equal(t, `{"id":"c"}`, string(snap.Rows[2]))
}

func TestSQLStore_ReadVersionTimeTravel(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	for _, row := range []string{`{"id":"a"}`, `{"id":"b"}`, `{"id":"c"}`} {
		_, err := store.Append(ctx, "accounts", rowSet(row))
		require.NoError(t, err)
	}

	for version := int64(0); version <= 3; version++ {
		snap, err := store.ReadVersion(ctx, "accounts", version)
		require.NoError(t, err)
		assert.Len(t, snap.Rows, int(version))
	}

	_, err := store.ReadVersion(ctx, "accounts", 99)
	assert.ErrorIs(t, err, common.ErrVersionNotFound)
}

func TestSQLStore_OverwriteReplacesContentKeepsHistory(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`, `{"id":"b"}`))
	require.NoError(t, err)

	v2, err := store.Overwrite(ctx, "accounts", rowSet(`{"id":"b"}`), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, `{"id":"b"}`, string(snap.Rows[0]))

	old, err := store.ReadVersion(ctx, "accounts", 1)
	require.NoError(t, err)
	assert.Len(t, old.Rows, 2)
}

func TestSQLStore_OverwriteVersionConflict(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)

	// A concurrent writer advanced the table past the caller's read.
	_, err = store.Overwrite(ctx, "accounts", rowSet(`{"id":"z"}`), 0)
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	// Skipping the check commits regardless.
	_, err = store.Overwrite(ctx, "accounts", rowSet(`{"id":"z"}`), -1)
	assert.NoError(t, err)
}

func TestSQLStore_ReadTimestamp(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	// The version-0 create commit was stamped with the real clock, so the
	// simulated commits stay in the past relative to it.
	base := time.Now().UTC().Add(-10 * time.Hour)
	clock := base
	store.now = func() time.Time { return clock }

	clock = base.Add(1 * time.Minute)
	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)

	clock = base.Add(2 * time.Minute)
	_, err = store.Append(ctx, "accounts", rowSet(`{"id":"b"}`))
	require.NoError(t, err)

	snap, err := store.ReadTimestamp(ctx, "accounts", base.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Len(t, snap.Rows, 1)

	snap, err = store.ReadTimestamp(ctx, "accounts", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)

	_, err = store.ReadTimestamp(ctx, "accounts", base.Add(-time.Hour))
	assert.ErrorIs(t, err, common.ErrVersionNotFound)
}

func TestSQLStore_HistoryNewestFirst(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)
	_, err = store.Overwrite(ctx, "accounts", rowSet(`{"id":"b"}`), -1)
	require.NoError(t, err)

	history, err := store.History(ctx, "accounts", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(2), history[0].Version)
	assert.Equal(t, "overwrite", history[0].Operation)
	assert.Equal(t, "append", history[1].Operation)
	assert.Equal(t, "create", history[2].Operation)

	limited, err := store.History(ctx, "accounts", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(2), limited[0].Version)
}

func TestSQLStore_VacuumDropsOldVersions(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	base := time.Now().UTC().Add(-96 * time.Hour)
	clock := base
	store.now = func() time.Time { return clock }

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)

	clock = base.Add(48 * time.Hour)
	_, err = store.Append(ctx, "accounts", rowSet(`{"id":"b"}`))
	require.NoError(t, err)

	// Retain 24h: version 1 (and the create commit) fall outside the window.
	require.NoError(t, store.Vacuum(ctx, "accounts", 24*time.Hour))

	_, err = store.ReadVersion(ctx, "accounts", 1)
	assert.ErrorIs(t, err, common.ErrVersionNotFound)

	// The latest version is never touched.
	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.Len(t, snap.Rows, 2)

	history, err := store.History(ctx, "accounts", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), history[0].Version)
	for _, ci := range history {
		assert.NotEqual(t, int64(1), ci.Version)
	}
}

func TestSQLStore_VacuumZeroRetentionSameMillisecond(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	// Commits and the vacuum all share one clock reading, as an in-memory
	// purge sequence does in practice.
	frozen := time.Now().UTC()
	store.now = func() time.Time { return frozen }

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)
	_, err = store.Overwrite(ctx, "accounts", rowSet(`{"id":"b"}`), -1)
	require.NoError(t, err)

	require.NoError(t, store.Vacuum(ctx, "accounts", 0))

	_, err = store.ReadVersion(ctx, "accounts", 1)
	assert.ErrorIs(t, err, common.ErrVersionNotFound)

	history, err := store.History(ctx, "accounts", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(2), history[0].Version)

	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
	assert.Len(t, snap.Rows, 1)
}

func TestSQLStore_CompactKeepsLogicalState(t *testing.T) {
	store := newTestStore(t, "accounts")
	ctx := context.Background()

	_, err := store.Append(ctx, "accounts", rowSet(`{"id":"a"}`))
	require.NoError(t, err)

	require.NoError(t, store.Compact(ctx, "accounts"))

	snap, err := store.Scan(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)
	assert.Len(t, snap.Rows, 1)
}
