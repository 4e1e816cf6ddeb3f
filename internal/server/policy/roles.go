// Package policy holds the closed role, subscription-tier, and audit-action
// enumerations together with their static lookup tables. Everything here is
// pure and stateless; nothing is persisted.
package policy

// Role is a user role in the ordered permission hierarchy
// guest < pending < registered < trader < admin.
type Role string

const (
	RoleGuest      Role = "guest"
	RolePending    Role = "pending"
	RoleRegistered Role = "registered"
	RoleTrader     Role = "trader"
	RoleAdmin      Role = "admin"
)

var roleLevels = map[Role]int{
	RoleGuest:      0,
	RolePending:    1,
	RoleRegistered: 2,
	RoleTrader:     3,
	RoleAdmin:      4,
}

// ParseRole maps a stored string onto a Role. Unknown values degrade to
// guest, the least privileged role.
func ParseRole(s string) Role {
	if _, ok := roleLevels[Role(s)]; ok {
		return Role(s)
	}
	return RoleGuest
}

// Level returns the role's position in the hierarchy; higher means more
// access.
func (r Role) Level() int {
	return roleLevels[r]
}

// HasPermission reports whether r grants at least the permissions of
// required.
func (r Role) HasPermission(required Role) bool {
	return r.Level() >= required.Level()
}

func (r Role) String() string { return string(r) }
