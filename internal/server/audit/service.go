package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/ledgerhouse/internal/ledger"
	"github.com/dmitrijs2005/ledgerhouse/internal/logging"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/models"
	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
)

// Service appends audit events to the audit_log ledger table and answers
// per-user activity and billing queries over it.
type Service struct {
	store  ledger.Store
	logger logging.Logger

	now        func() time.Time
	newEventID func() string
}

func NewService(store ledger.Store, logger logging.Logger) *Service {
	return &Service{
		store:      store,
		logger:     logger,
		now:        time.Now,
		newEventID: uuid.NewString,
	}
}

// Log appends one event. It is best-effort: failures are logged and
// swallowed so that the operation that produced the event never fails
// because its audit record could not be written.
func (s *Service) Log(ctx context.Context, userID, username string, action policy.Action, resource, detail, ipAddress string) {
	ts := s.now().UTC()

	entry := models.AuditEntry{
		EventID:       s.newEventID(),
		UserID:        userID,
		Username:      username,
		Action:        action,
		Resource:      resource,
		Detail:        detail,
		IPAddress:     ipAddress,
		Timestamp:     ts.Format(time.RFC3339),
		DatePartition: ts.Format("2006-01-02"),
	}

	rows, err := ledger.EncodeRows([]models.AuditEntry{entry})
	if err != nil {
		s.logger.Warn(ctx, "audit event dropped", "action", action, "error", err)
		return
	}

	if _, err := s.store.Append(ctx, models.TableAuditLog, rows); err != nil {
		s.logger.Warn(ctx, "audit event dropped", "action", action, "error", err)
	}
}

// Activity returns up to limit events for one user, newest first.
func (s *Service) Activity(ctx context.Context, userID string, limit int) ([]models.AuditEntry, error) {
	entries, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.AuditEntry, 0, len(entries))
	for _, e := range entries {
		if e.UserID == userID {
			filtered = append(filtered, e)
		}
	}

	sortNewestFirst(filtered)
	return truncate(filtered, limit), nil
}

// RecentEvents returns up to limit events across all users, newest first.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	entries, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(entries)
	return truncate(entries, limit), nil
}

// BillingSummary aggregates billable actions for one user over an
// inclusive date range. startDate and endDate are YYYY-MM-DD partitions.
func (s *Service) BillingSummary(ctx context.Context, userID, startDate, endDate string) (*models.BillingSummary, error) {
	entries, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.BillingSummary{
		UserID:      userID,
		PeriodStart: startDate,
		PeriodEnd:   endDate,
	}

	for _, e := range entries {
		if e.UserID != userID || e.DatePartition < startDate || e.DatePartition > endDate {
			continue
		}
		switch e.Action {
		case policy.ActionQueryExecuted:
			summary.TotalQueries++
		case policy.ActionDataUpload:
			summary.TotalUploads++
		case policy.ActionDataExport:
			summary.TotalExports++
		case policy.ActionBacktestRun:
			summary.TotalBacktests++
		case policy.ActionLiveTradeStart:
			summary.TotalLiveTrades++
		}
		// Non-billable actions count toward the total as well.
		summary.TotalActions++
	}

	return summary, nil
}

func (s *Service) readAll(ctx context.Context) ([]models.AuditEntry, error) {
	snap, err := s.store.Scan(ctx, models.TableAuditLog)
	if err != nil {
		return nil, fmt.Errorf("scanning audit log: %w", err)
	}
	return ledger.DecodeRows[models.AuditEntry](snap)
}

// sortNewestFirst orders entries by timestamp descending. Timestamps are
// written by Log in UTC RFC 3339, so the string order is the time order;
// the event id breaks ties deterministically.
func sortNewestFirst(entries []models.AuditEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp > entries[j].Timestamp
		}
		return entries[i].EventID > entries[j].EventID
	})
}

func truncate(entries []models.AuditEntry, limit int) []models.AuditEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
