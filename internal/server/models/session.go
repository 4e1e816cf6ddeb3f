package models

import "github.com/dmitrijs2005/ledgerhouse/internal/server/policy"

// Session is one row of the sessions table. The row is keyed by the SHA-256
// hash of the issued token; the raw token is never persisted. Username and
// role are the values at issuance; verification always resolves the current
// user row.
type Session struct {
	TokenHash string      `json:"token_hash"`
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Role      policy.Role `json:"role"`
	CreatedAt string      `json:"created_at"`
	ExpiresAt string      `json:"expires_at"`
	IsRevoked bool        `json:"is_revoked"`
}
