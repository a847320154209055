// Package access implements ward-scoped authorization. A Principal is built
// from the authenticated user once per request; every ward-scoped handler
// asks this package before touching data, and a denial is always reported as
// forbidden before any existence check could leak what the caller cannot see.
package access

import (
	"context"

	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/db/models"
)

// Principal is the authenticated caller as seen by authorization checks.
// It is a pure value; both checks below are side-effect-free functions of
// the principal and the target ward.
type Principal struct {
	UserID  string
	Role    models.Role
	WardIDs []string
}

func (p Principal) assignedTo(wardID string) bool {
	for _, id := range p.WardIDs {
		if id == wardID {
			return true
		}
	}
	return false
}

// HasAccess reports whether the principal may read or record data scoped to
// wardID. Super admins see everything, including wards that do not exist;
// everyone else only their assigned wards.
func (p Principal) HasAccess(wardID string) bool {
	if p.Role == models.RoleSuperAdmin {
		return true
	}
	return p.assignedTo(wardID)
}

// CanManageWard reports whether the principal may administer the ward, in
// particular create agent accounts under it. Agents never manage wards,
// regardless of assignment.
func (p Principal) CanManageWard(wardID string) bool {
	if p.Role == models.RoleSuperAdmin {
		return true
	}
	return p.Role == models.RoleWardMember && p.HasAccess(wardID)
}

// householdWards resolves a household ID to its owning ward.
type householdWards interface {
	WardOf(ctx context.Context, householdID string) (string, error)
}

// memberHouseholds resolves a family member ID to its household.
type memberHouseholds interface {
	HouseholdOf(ctx context.Context, memberID string) (string, error)
}

// Resolver walks entity ownership back to a ward ID. Family members resolve
// in two explicit hops: member to household, then household to ward. A
// dangling reference on either hop is a data-integrity fault and surfaces
// as not-found.
type Resolver struct {
	households householdWards
	members    memberHouseholds
}

// NewResolver creates a Resolver over the household and member repositories
func NewResolver(households householdWards, members memberHouseholds) *Resolver {
	return &Resolver{households: households, members: members}
}

// WardOfHousehold returns the ward owning the household.
func (r *Resolver) WardOfHousehold(ctx context.Context, householdID string) (string, error) {
	wardID, err := r.households.WardOf(ctx, householdID)
	if err != nil {
		return "", apperr.Unexpected(err)
	}
	if wardID == "" {
		return "", apperr.NotFound("household not found")
	}
	return wardID, nil
}

// WardOfMember returns the ward owning the member's household.
func (r *Resolver) WardOfMember(ctx context.Context, memberID string) (string, error) {
	householdID, err := r.members.HouseholdOf(ctx, memberID)
	if err != nil {
		return "", apperr.Unexpected(err)
	}
	if householdID == "" {
		return "", apperr.NotFound("family member not found")
	}
	return r.WardOfHousehold(ctx, householdID)
}
