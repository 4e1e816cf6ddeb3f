package models

import "github.com/dmitrijs2005/ledgerhouse/internal/server/policy"

// AuditEntry is one immutable row of the audit_log table. Entries are never
// mutated or individually deleted; only a whole-user GDPR purge removes
// them. DatePartition is the calendar day (YYYY-MM-DD) derived from
// Timestamp, used for range filtering.
type AuditEntry struct {
	EventID       string        `json:"event_id"`
	UserID        string        `json:"user_id"`
	Username      string        `json:"username"`
	Action        policy.Action `json:"action"`
	Resource      string        `json:"resource,omitempty"`
	Detail        string        `json:"detail"`
	IPAddress     string        `json:"ip_address,omitempty"`
	Timestamp     string        `json:"timestamp"`
	DatePartition string        `json:"date_partition"`
}

// BillingSummary is a derived, non-persisted aggregate over a user's audit
// entries within an inclusive date-partition range. Billable action kinds
// are counted individually; TotalActions counts every entry, billable or
// not.
type BillingSummary struct {
	UserID          string `json:"user_id"`
	PeriodStart     string `json:"period_start"`
	PeriodEnd       string `json:"period_end"`
	TotalQueries    uint64 `json:"total_queries"`
	TotalUploads    uint64 `json:"total_uploads"`
	TotalExports    uint64 `json:"total_exports"`
	TotalBacktests  uint64 `json:"total_backtests"`
	TotalLiveTrades uint64 `json:"total_live_trades"`
	TotalActions    uint64 `json:"total_actions"`
}
