// Package ledger defines the versioned, append-only table store contract the
// identity, session, and audit services are built on, plus a SQL-backed
// implementation.
//
// The store's only mutation primitive is an atomic commit of a new immutable
// version holding the table's full row set. Appends and overwrites both
// produce a new version; prior versions stay readable until vacuumed.
package ledger

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot is the full row set of a table as of one committed version.
// Rows are opaque encoded documents; schema belongs to the owning service.
type Snapshot struct {
	Version int64
	Rows    [][]byte
}

// VersionInfo describes a single commit in a table's history.
type VersionInfo struct {
	Version   int64
	Timestamp time.Time
	Operation string
}

// Store is the ledger store adapter. Each call is a single atomic operation
// against one named table; partial writes are never visible.
type Store interface {
	// Append commits a new version containing the previous snapshot plus
	// the given rows. Returns the new version.
	Append(ctx context.Context, table string, rows [][]byte) (int64, error)

	// Scan returns the latest committed snapshot.
	Scan(ctx context.Context, table string) (*Snapshot, error)

	// ReadVersion returns the table as of the given version, which must
	// not have been vacuumed away.
	ReadVersion(ctx context.Context, table string, version int64) (*Snapshot, error)

	// ReadTimestamp returns the table as of the greatest version whose
	// commit time is not after at. Resolution is a linear scan over the
	// retained history, O(history length).
	ReadTimestamp(ctx context.Context, table string, at time.Time) (*Snapshot, error)

	// Overwrite replaces the table's entire logical content, producing a
	// new version whose predecessors remain readable via ReadVersion.
	//
	// When expectedVersion >= 0 the commit fails with ErrVersionConflict
	// if the table has advanced past expectedVersion since the caller's
	// read, closing the read-modify-write race. Pass -1 to skip the check.
	Overwrite(ctx context.Context, table string, rows [][]byte, expectedVersion int64) (int64, error)

	// Version returns the latest committed version number.
	Version(ctx context.Context, table string) (int64, error)

	// History returns commits newest-first. limit <= 0 returns all
	// retained commits.
	History(ctx context.Context, table string, limit int) ([]VersionInfo, error)

	// Compact reclaims physical space without changing any logical state.
	Compact(ctx context.Context, table string) error

	// Vacuum physically deletes versions committed at or before
	// now-retention. The latest logical state is never touched; retention
	// 0 drops all history, including versions committed this instant.
	Vacuum(ctx context.Context, table string, retention time.Duration) error
}

// EncodeRows marshals typed records into the opaque row representation.
func EncodeRows[T any](items []T) ([][]byte, error) {
	rows := make([][]byte, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		rows = append(rows, b)
	}
	return rows, nil
}

// DecodeRows unmarshals every row of a snapshot into typed records.
func DecodeRows[T any](snap *Snapshot) ([]T, error) {
	items := make([]T, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ReplaceByKey is the single row-mutation primitive available on top of the
// full-snapshot commit model: partition rows into the match and everything
// else, rebuild the matched row, and hand the combined set back for an
// Overwrite. O(table size) per call by construction.
//
// Returns the rebuilt row set and whether a row matched. Only the first
// matching row is rebuilt; keys are unique by invariant.
func ReplaceByKey[T any](rows []T, match func(T) bool, rebuild func(T) T) ([]T, bool) {
	out := make([]T, 0, len(rows))
	replaced := false
	for _, r := range rows {
		if !replaced && match(r) {
			out = append(out, rebuild(r))
			replaced = true
			continue
		}
		out = append(out, r)
	}
	return out, replaced
}

// FilterRows returns the rows for which keep is false removed, plus the
// number of rows dropped. Used for deletions via Overwrite.
func FilterRows[T any](rows []T, keep func(T) bool) ([]T, int) {
	out := make([]T, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		} else {
			dropped++
		}
	}
	return out, dropped
}
