// Package models defines the persistent entities of the census service:
// wards, users, households, family members, and audit log entries.
package models

// Role classifies a user account. Roles are plain data on the user row, and
// all authorization decisions branch on the value rather than on a type.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleWardMember Role = "WARD_MEMBER"
	RoleAgent      Role = "AGENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleWardMember, RoleAgent:
		return true
	}
	return false
}
