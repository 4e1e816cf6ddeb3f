// Package models defines the row schemas of the three ledger tables and the
// derived billing aggregate. Field tags are the fixed column names; every
// timestamp is stored as an RFC 3339 string.
package models

// Ledger table names. Each service owns exactly one table and never writes
// another's table directly.
const (
	TableUsers    = "users"
	TableSessions = "sessions"
	TableAuditLog = "audit_log"
)

// AllTables lists every ledger table for store initialization and
// maintenance sweeps.
func AllTables() []string {
	return []string{TableUsers, TableSessions, TableAuditLog}
}
