package models

import "time"

// User represents an account in the census service. The Role field decides
// what the account may do; AssignedWardIDs scopes ward members and agents to
// the wards they work in. Super admins have no assignments and see everything.
type User struct {
	ID              string
	Name            string
	Email           string
	Mobile          *string
	PasswordHash    string `json:"-"`
	Role            Role
	Active          bool
	AssignedWardIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanSeeAllWards reports whether the user's role grants global visibility.
func (u *User) CanSeeAllWards() bool {
	return u.Role == RoleSuperAdmin
}
