// Package maintenance runs the background upkeep of the ledger tables:
// expired-session sweeps, physical compaction and history vacuuming.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
)

const (
	sweepInterval   = 1 * time.Hour
	compactInterval = 6 * time.Hour
	vacuumInterval  = 24 * time.Hour
)

type Service struct {
	store     ledger.Store
	logger    logging.Logger
	retention time.Duration

	now func() time.Time
}

func NewService(store ledger.Store, logger logging.Logger, retention time.Duration) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled, firing each upkeep task on its own
// interval. A failing task is logged and retried on the next tick.
func (s *Service) Run(ctx context.Context) {
	sweep := time.NewTicker(sweepInterval)
	compact := time.NewTicker(compactInterval)
	vacuum := time.NewTicker(vacuumInterval)
	defer sweep.Stop()
	defer compact.Stop()
	defer vacuum.Stop()

	s.logger.Info(ctx, "maintenance scheduler started",
		"sweep", sweepInterval, "compact", compactInterval, "vacuum", vacuumInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "maintenance scheduler stopped")
			return
		case <-sweep.C:
			if n, err := s.SweepExpiredSessions(ctx); err != nil {
				s.logger.Warn(ctx, "session sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Info(ctx, "expired sessions swept", "count", n)
			}
		case <-compact.C:
			if err := s.CompactAll(ctx); err != nil {
				s.logger.Warn(ctx, "compaction failed", "error", err)
			}
		case <-vacuum.C:
			if err := s.VacuumAll(ctx); err != nil {
				s.logger.Warn(ctx, "vacuum failed", "error", err)
			}
		}
	}
}

// RunOnce executes one full maintenance pass: sweep, compact, vacuum.
func (s *Service) RunOnce(ctx context.Context) error {
	var errs []error

	if _, err := s.SweepExpiredSessions(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sweep: %w", err))
	}
	if err := s.CompactAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.VacuumAll(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SweepExpiredSessions rewrites the sessions table without rows whose
// expiry is in the past and returns the number removed. No commit is made
// when nothing expired.
func (s *Service) SweepExpiredSessions(ctx context.Context) (int, error) {
	snap, err := s.store.Scan(ctx, models.TableSessions)
	if err != nil {
		return 0, err
	}
	sessions, err := ledger.DecodeRows[models.Session](snap)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().UTC()
	kept, dropped := ledger.FilterRows(sessions, func(sess models.Session) bool {
		expiresAt, err := time.Parse(time.RFC3339, sess.ExpiresAt)
		if err != nil {
			// Unparseable expiry means the row is garbage; drop it.
			return false
		}
		return expiresAt.After(cutoff)
	})
	if dropped == 0 {
		return 0, nil
	}

	rows, err := ledger.EncodeRows(kept)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.Overwrite(ctx, models.TableSessions, rows, snap.Version); err != nil {
		return 0, err
	}

	return dropped, nil
}

// CompactAll reclaims physical space on every table.
func (s *Service) CompactAll(ctx context.Context) error {
	var errs []error
	for _, table := range models.AllTables() {
		if err := s.store.Compact(ctx, table); err != nil {
			errs = append(errs, fmt.Errorf("compact %s: %w", table, err))
		}
	}
	return errors.Join(errs...)
}

// VacuumAll drops versions older than the configured retention on every
// table.
func (s *Service) VacuumAll(ctx context.Context) error {
	var errs []error
	for _, table := range models.AllTables() {
		if err := s.store.Vacuum(ctx, table, s.retention); err != nil {
			errs = append(errs, fmt.Errorf("vacuum %s: %w", table, err))
		}
	}
	return errors.Join(errs...)
}
