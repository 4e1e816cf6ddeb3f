package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/ledgerhouse/internal/common"
	"github.com/dmitrijs2005/ledgerhouse/internal/dbx"
	"github.com/dmitrijs2005/ledgerhouse/internal/ledger/migrations"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
)

// Dialect selects placeholder style and maintenance statements.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Commit operations recorded in table history.
const (
	opCreate    = "create"
	opAppend    = "append"
	opOverwrite = "overwrite"
)

// SQLStore implements Store on a relational database. Every table version is
// materialized as its full row set in ledger_rows, keyed by
// (table_name, version); ledger_commits is the transaction log. A commit is a
// single SQL transaction, so partial writes are never visible.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  logging.Logger
	now     func() time.Time
}

// NewSQLiteStore opens (or creates) an embedded SQLite ledger at path, runs
// migrations, and registers the given tables at version 0. Use ":memory:"
// for throwaway stores in tests.
func NewSQLiteStore(ctx context.Context, path string, logger logging.Logger, tables ...string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", common.ErrStorage, err)
	}
	// The pool must not fan out over a single sqlite file (and :memory:
	// databases are per-connection).
	db.SetMaxOpenConns(1)

	return newSQLStore(ctx, db, DialectSQLite, database.DialectSQLite3, logger, tables)
}

// NewPostgresStore opens a PostgreSQL-backed ledger via the pgx stdlib
// driver, runs migrations, and registers the given tables at version 0.
func NewPostgresStore(ctx context.Context, dsn string, logger logging.Logger, tables ...string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", common.ErrStorage, err)
	}
	return newSQLStore(ctx, db, DialectPostgres, database.DialectPostgres, logger, tables)
}

func newSQLStore(ctx context.Context, db *sql.DB, dialect Dialect, gooseDialect database.Dialect, logger logging.Logger, tables []string) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With("module", "ledger"),
		now:     time.Now,
	}

	// A provider per store keeps the migration dialect off goose's global
	// state, so sqlite and postgres stores can coexist in one process.
	provider, err := goose.NewProvider(gooseDialect, db, migrations.Migrations)
	if err != nil {
		return nil, fmt.Errorf("%w: migrations: %v", common.ErrStorage, err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return nil, fmt.Errorf("%w: migrations: %v", common.ErrStorage, err)
	}

	if err := s.ensureTables(ctx, tables); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ensureTables registers each table with an empty version-0 commit.
// Idempotent, safe to call on every start.
func (s *SQLStore) ensureTables(ctx context.Context, tables []string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, table := range tables {
			cur, err := s.currentVersion(ctx, tx, table)
			if err != nil {
				return err
			}
			if cur >= 0 {
				continue
			}
			if err := s.insertCommit(ctx, tx, table, 0, opCreate); err != nil {
				return err
			}
			s.logger.Info(ctx, "table created", "table", table)
		}
		return nil
	})
}

func (s *SQLStore) Append(ctx context.Context, table string, rows [][]byte) (int64, error) {
	var version int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.currentVersion(ctx, tx, table)
		if err != nil {
			return err
		}
		if cur < 0 {
			return fmt.Errorf("table %q: %w", table, common.ErrNotFound)
		}
		version = cur + 1

		// Carry the previous snapshot forward, then add the new rows.
		if _, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO ledger_rows (table_name, version, row_idx, row_data)
			 SELECT table_name, ?, row_idx, row_data FROM ledger_rows
			 WHERE table_name = ? AND version = ?`),
			version, table, cur); err != nil {
			return err
		}

		offset, err := s.rowCount(ctx, tx, table, cur)
		if err != nil {
			return err
		}
		if err := s.insertRows(ctx, tx, table, version, offset, rows); err != nil {
			return err
		}
		return s.insertCommit(ctx, tx, table, version, opAppend)
	})
	if err != nil {
		return 0, storageErr("append", table, err)
	}

	s.logger.Debug(ctx, "rows appended", "table", table, "rows", len(rows), "version", version)
	return version, nil
}

func (s *SQLStore) Overwrite(ctx context.Context, table string, rows [][]byte, expectedVersion int64) (int64, error) {
	var version int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.currentVersion(ctx, tx, table)
		if err != nil {
			return err
		}
		if cur < 0 {
			return fmt.Errorf("table %q: %w", table, common.ErrNotFound)
		}
		if expectedVersion >= 0 && cur != expectedVersion {
			return fmt.Errorf("table %q advanced to %d, expected %d: %w",
				table, cur, expectedVersion, common.ErrVersionConflict)
		}
		version = cur + 1

		if err := s.insertRows(ctx, tx, table, version, 0, rows); err != nil {
			return err
		}
		return s.insertCommit(ctx, tx, table, version, opOverwrite)
	})
	if err != nil {
		return 0, storageErr("overwrite", table, err)
	}

	s.logger.Debug(ctx, "table overwritten", "table", table, "rows", len(rows), "version", version)
	return version, nil
}

func (s *SQLStore) Scan(ctx context.Context, table string) (*Snapshot, error) {
	cur, err := s.Version(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.readRows(ctx, table, cur)
}

func (s *SQLStore) ReadVersion(ctx context.Context, table string, version int64) (*Snapshot, error) {
	var op string
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT operation FROM ledger_commits WHERE table_name = ? AND version = ?`),
		table, version).Scan(&op)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %q version %d: %w", table, version, common.ErrVersionNotFound)
	}
	if err != nil {
		return nil, storageErr("read version", table, err)
	}
	return s.readRows(ctx, table, version)
}

func (s *SQLStore) ReadTimestamp(ctx context.Context, table string, at time.Time) (*Snapshot, error) {
	history, err := s.History(ctx, table, 0)
	if err != nil {
		return nil, err
	}

	// Linear scan of the retained history for the greatest version whose
	// commit time is <= at. O(history length).
	best := int64(-1)
	for _, ci := range history {
		if !ci.Timestamp.After(at) && ci.Version > best {
			best = ci.Version
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("table %q has no version at %s: %w",
			table, at.UTC().Format(time.RFC3339), common.ErrVersionNotFound)
	}
	return s.readRows(ctx, table, best)
}

func (s *SQLStore) Version(ctx context.Context, table string) (int64, error) {
	cur, err := s.currentVersion(ctx, s.db, table)
	if err != nil {
		return 0, storageErr("version", table, err)
	}
	if cur < 0 {
		return 0, fmt.Errorf("table %q: %w", table, common.ErrNotFound)
	}
	return cur, nil
}

func (s *SQLStore) History(ctx context.Context, table string, limit int) ([]VersionInfo, error) {
	query := `SELECT version, operation, committed_at FROM ledger_commits
	          WHERE table_name = ? ORDER BY version DESC`
	args := []any{table}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, storageErr("history", table, err)
	}
	defer rows.Close()

	var history []VersionInfo
	for rows.Next() {
		var ci VersionInfo
		var ms int64
		if err := rows.Scan(&ci.Version, &ci.Operation, &ms); err != nil {
			return nil, storageErr("history", table, err)
		}
		ci.Timestamp = time.UnixMilli(ms).UTC()
		history = append(history, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("history", table, err)
	}
	return history, nil
}

// Compact reclaims disk space freed by vacuumed versions. Purely physical;
// logical state and history are unchanged.
func (s *SQLStore) Compact(ctx context.Context, table string) error {
	var stmt string
	switch s.dialect {
	case DialectPostgres:
		stmt = `VACUUM (ANALYZE) ledger_rows`
	default:
		stmt = `VACUUM`
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return storageErr("compact", table, err)
	}
	s.logger.Info(ctx, "compaction complete", "table", table)
	return nil
}

func (s *SQLStore) Vacuum(ctx context.Context, table string, retention time.Duration) error {
	cutoff := s.now().Add(-retention).UnixMilli()

	var deleted int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		latest, err := s.currentVersion(ctx, tx, table)
		if err != nil {
			return err
		}
		if latest < 0 {
			return fmt.Errorf("table %q: %w", table, common.ErrNotFound)
		}

		// The cutoff comparison is inclusive: commit times have millisecond
		// resolution, so a strict comparison would keep versions committed
		// in the same millisecond as a zero-retention vacuum.
		res, err := tx.ExecContext(ctx, s.q(
			`DELETE FROM ledger_rows WHERE table_name = ? AND version < ?
			 AND version IN (SELECT version FROM ledger_commits
			                 WHERE table_name = ? AND committed_at <= ?)`),
			table, latest, table, cutoff)
		if err != nil {
			return err
		}
		deleted, _ = res.RowsAffected()

		_, err = tx.ExecContext(ctx, s.q(
			`DELETE FROM ledger_commits WHERE table_name = ? AND version < ? AND committed_at <= ?`),
			table, latest, cutoff)
		return err
	})
	if err != nil {
		return storageErr("vacuum", table, err)
	}

	s.logger.Info(ctx, "vacuum complete", "table", table,
		"retention", retention.String(), "rows_deleted", deleted)
	return nil
}

// --- helpers below ---

func (s *SQLStore) readRows(ctx context.Context, table string, version int64) (*Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, s.q(
		`SELECT row_data FROM ledger_rows WHERE table_name = ? AND version = ? ORDER BY row_idx`),
		table, version)
	if err != nil {
		return nil, storageErr("read", table, err)
	}
	defer rows.Close()

	snap := &Snapshot{Version: version}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, storageErr("read", table, err)
		}
		snap.Rows = append(snap.Rows, data)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read", table, err)
	}
	return snap, nil
}

// currentVersion returns the latest version number, or -1 when the table
// has never been registered.
func (s *SQLStore) currentVersion(ctx context.Context, db dbx.DBTX, table string) (int64, error) {
	var cur int64
	err := db.QueryRowContext(ctx, s.q(
		`SELECT COALESCE(MAX(version), -1) FROM ledger_commits WHERE table_name = ?`),
		table).Scan(&cur)
	if err != nil {
		return 0, err
	}
	return cur, nil
}

func (s *SQLStore) rowCount(ctx context.Context, tx dbx.DBTX, table string, version int64) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, s.q(
		`SELECT COUNT(*) FROM ledger_rows WHERE table_name = ? AND version = ?`),
		table, version).Scan(&n)
	return n, err
}

func (s *SQLStore) insertRows(ctx context.Context, tx dbx.DBTX, table string, version, offset int64, rows [][]byte) error {
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, s.q(
			`INSERT INTO ledger_rows (table_name, version, row_idx, row_data) VALUES (?, ?, ?, ?)`),
			table, version, offset+int64(i), string(row)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) insertCommit(ctx context.Context, tx dbx.DBTX, table string, version int64, operation string) error {
	_, err := tx.ExecContext(ctx, s.q(
		`INSERT INTO ledger_commits (table_name, version, operation, committed_at) VALUES (?, ?, ?, ?)`),
		table, version, operation, s.now().UnixMilli())
	return err
}

// q rewrites ? placeholders to $n for the postgres dialect.
func (s *SQLStore) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func storageErr(op, table string, err error) error {
	// Conflict and not-found sentinels pass through unchanged; everything
	// else is a storage failure.
	if isSentinel(err) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", common.ErrStorage, op, table, err)
}

func isSentinel(err error) bool {
	for _, sentinel := range []error{
		common.ErrVersionConflict, common.ErrVersionNotFound, common.ErrNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
