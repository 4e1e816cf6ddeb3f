package models

import (
	"strings"

	"github.com/dmitrijs2005/ledgerhouse/internal/server/policy"
)

// User is one row of the users table.
type User struct {
	ID           string      `json:"user_id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash,omitempty"`
	Role         policy.Role `json:"role"`
	Tier         policy.Tier `json:"subscription_tier,omitempty"`
	FirstName    string      `json:"first_name,omitempty"`
	LastName     string      `json:"last_name,omitempty"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    string      `json:"created_at"`
	LastLogin    string      `json:"last_login,omitempty"`
}

// DisplayName returns "First Last" when profile names are present, the
// username otherwise.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// HasRole reports whether the user's role grants at least the permissions
// of required.
func (u *User) HasRole(required policy.Role) bool {
	return u.Role.HasPermission(required)
}

// Sanitized returns a copy safe to hand to callers: the password digest is
// never returned outside the identity registry.
func (u *User) Sanitized() *User {
	c := *u
	c.PasswordHash = ""
	return &c
}
