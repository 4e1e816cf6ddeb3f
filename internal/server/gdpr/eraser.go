// Package gdpr implements right-to-erasure over the ledger tables.
package gdpr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
)

// Eraser removes every trace of one user. Each table is rewritten in its
// own commit and then vacuumed with zero retention so historical versions
// that still contain the user's rows become unreadable too.
//
// The pass is deliberately not transactional across tables: a failure on
// one table does not roll back the others, it is reported and the pass
// moves on. Erasure must make forward progress even when a table is
// wedged.
type Eraser struct {
	store  ledger.Store
	logger logging.Logger
}

func NewEraser(store ledger.Store, logger logging.Logger) *Eraser {
	return &Eraser{store: store, logger: logger}
}

// Erase purges the user's rows from users, sessions and audit_log and
// drops all retained history of those tables. Errors from individual
// tables are joined into the returned error.
func (e *Eraser) Erase(ctx context.Context, userID string) error {
	var errs []error

	if err := purge[models.User](ctx, e.store, models.TableUsers, func(u models.User) bool {
		return u.ID != userID
	}); err != nil {
		errs = append(errs, fmt.Errorf("users: %w", err))
	}

	if err := purge[models.Session](ctx, e.store, models.TableSessions, func(s models.Session) bool {
		return s.UserID != userID
	}); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	if err := purge[models.AuditEntry](ctx, e.store, models.TableAuditLog, func(a models.AuditEntry) bool {
		return a.UserID != userID
	}); err != nil {
		errs = append(errs, fmt.Errorf("audit_log: %w", err))
	}

	for _, table := range models.AllTables() {
		if err := e.store.Vacuum(ctx, table, 0); err != nil {
			errs = append(errs, fmt.Errorf("vacuum %s: %w", table, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	e.logger.Info(ctx, "user erased", "user", userID)
	return nil
}

func purge[T any](ctx context.Context, store ledger.Store, table string, keep func(T) bool) error {
	snap, err := store.Scan(ctx, table)
	if err != nil {
		return err
	}
	items, err := ledger.DecodeRows[T](snap)
	if err != nil {
		return err
	}

	kept, dropped := ledger.FilterRows(items, keep)
	if dropped == 0 {
		return nil
	}

	rows, err := ledger.EncodeRows(kept)
	if err != nil {
		return err
	}
	_, err = store.Overwrite(ctx, table, rows, snap.Version)
	return err
}
