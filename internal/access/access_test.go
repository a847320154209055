package access

import (
	"context"
	"errors"
	"testing"

	"github.com/ward-census/ward-census/internal/apperr"
	"github.com/ward-census/ward-census/internal/db/models"
)

func principal(role models.Role, wards ...string) Principal {
	return Principal{UserID: "user-1", Role: role, WardIDs: wards}
}

func TestHasAccess_SuperAdminSeesEverything(t *testing.T) {
	p := principal(models.RoleSuperAdmin)
	if !p.HasAccess("ward-1") {
		t.Error("super admin denied assigned ward")
	}
	if !p.HasAccess("no-such-ward") {
		t.Error("super admin must pass even for unknown ward ids")
	}
}

func TestHasAccess_WardMemberOnlyAssigned(t *testing.T) {
	p := principal(models.RoleWardMember, "ward-1", "ward-2")
	if !p.HasAccess("ward-1") {
		t.Error("ward member denied assigned ward")
	}
	if p.HasAccess("ward-3") {
		t.Error("ward member allowed into unassigned ward")
	}
}

func TestHasAccess_AgentOnlyAssigned(t *testing.T) {
	p := principal(models.RoleAgent, "ward-1")
	if !p.HasAccess("ward-1") {
		t.Error("agent denied assigned ward")
	}
	if p.HasAccess("ward-2") {
		t.Error("agent allowed into unassigned ward")
	}
}

func TestCanManageWard(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		ward string
		want bool
	}{
		{"super admin anywhere", principal(models.RoleSuperAdmin), "ward-9", true},
		{"ward member assigned", principal(models.RoleWardMember, "ward-1"), "ward-1", true},
		{"ward member unassigned", principal(models.RoleWardMember, "ward-1"), "ward-2", false},
		{"agent assigned", principal(models.RoleAgent, "ward-1"), "ward-1", false},
		{"agent unassigned", principal(models.RoleAgent, "ward-1"), "ward-2", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.CanManageWard(tc.ward); got != tc.want {
				t.Errorf("CanManageWard = %v, want %v", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Resolver
// ---------------------------------------------------------------------------

type fakeHouseholds struct {
	wards map[string]string
	err   error
}

func (f *fakeHouseholds) WardOf(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.wards[id], nil
}

type fakeMembers struct {
	households map[string]string
	err        error
}

func (f *fakeMembers) HouseholdOf(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.households[id], nil
}

func TestWardOfHousehold(t *testing.T) {
	r := NewResolver(&fakeHouseholds{wards: map[string]string{"hh-1": "ward-1"}}, &fakeMembers{})

	wardID, err := r.WardOfHousehold(context.Background(), "hh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wardID != "ward-1" {
		t.Errorf("wardID = %s, want ward-1", wardID)
	}
}

func TestWardOfHousehold_NotFound(t *testing.T) {
	r := NewResolver(&fakeHouseholds{wards: map[string]string{}}, &fakeMembers{})

	_, err := r.WardOfHousehold(context.Background(), "missing")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestWardOfMember_TwoHops(t *testing.T) {
	r := NewResolver(
		&fakeHouseholds{wards: map[string]string{"hh-1": "ward-1"}},
		&fakeMembers{households: map[string]string{"fm-1": "hh-1"}},
	)

	wardID, err := r.WardOfMember(context.Background(), "fm-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wardID != "ward-1" {
		t.Errorf("wardID = %s, want ward-1", wardID)
	}
}

func TestWardOfMember_MemberMissing(t *testing.T) {
	r := NewResolver(&fakeHouseholds{}, &fakeMembers{households: map[string]string{}})

	_, err := r.WardOfMember(context.Background(), "missing")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestWardOfMember_DanglingHousehold(t *testing.T) {
	// Member resolves to a household that no longer exists.
	r := NewResolver(
		&fakeHouseholds{wards: map[string]string{}},
		&fakeMembers{households: map[string]string{"fm-1": "hh-gone"}},
	)

	_, err := r.WardOfMember(context.Background(), "fm-1")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not found for dangling household, got %v", err)
	}
}

func TestWardOfMember_StoreError(t *testing.T) {
	r := NewResolver(&fakeHouseholds{}, &fakeMembers{err: errors.New("db down")})

	_, err := r.WardOfMember(context.Background(), "fm-1")
	if apperr.KindOf(err) != apperr.KindUnexpected {
		t.Errorf("expected unexpected, got %v", err)
	}
}
