package models

import "time"

// VisitStatus tracks how far an agent has gotten with a household. Recording
// a household marks it VISITED; VERIFIED means the visit was later confirmed.
type VisitStatus string

const (
	VisitNotVisited VisitStatus = "NOT_VISITED"
	VisitVisited    VisitStatus = "VISITED"
	VisitVerified   VisitStatus = "VERIFIED"
)

// Valid reports whether s is one of the known visit statuses.
func (s VisitStatus) Valid() bool {
	switch s {
	case VisitNotVisited, VisitVisited, VisitVerified:
		return true
	}
	return false
}

// RationCardType is the public distribution category of a household.
type RationCardType string

const (
	RationAPL  RationCardType = "APL"
	RationBPL  RationCardType = "BPL"
	RationAAY  RationCardType = "AAY"
	RationNone RationCardType = "NONE"
)

// Valid reports whether t is one of the known ration card types.
func (t RationCardType) Valid() bool {
	switch t {
	case RationAPL, RationBPL, RationAAY, RationNone:
		return true
	}
	return false
}

// Household is a surveyed house within a ward. WardID is fixed at creation
// and never changed by updates; ward moves would invalidate the audit trail.
type Household struct {
	ID               string
	WardID           string
	HouseNumber      string
	FullAddress      string
	Landmark         *string
	RationCardNumber *string
	RationCardType   RationCardType
	Latitude         *float64
	Longitude        *float64
	VisitStatus      VisitStatus
	VisitedAt        *time.Time
	CreatedByAgentID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
