package models

import "time"

// AuditLog is an append-only record of a state-changing action. Seq is
// assigned by the database and is strictly increasing, so replaying entries
// in seq order reproduces the write order even when timestamps collide.
type AuditLog struct {
	ID        string
	Seq       int64
	UserID    *string // nil for system actions such as seeding
	Action    string  // "CREATE_WARD", "UPDATE_HOUSEHOLD", "DELETE_USER"
	Entity    string  // "WARD", "USER", "HOUSEHOLD", "FAMILY_MEMBER"
	EntityID  *string
	WardID    *string // nil for actions without a ward scope
	Details   *string
	CreatedAt time.Time
}
