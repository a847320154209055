// Package export assembles the flat row layout consumed by report sinks.
//
// A ward export is an ordered sequence of records: every household appears
// once per family member, household columns first and member columns after.
// A household with no members still appears, as a single row with empty
// member fields, so the export always accounts for every surveyed house.
// Row assembly is sink-agnostic; byte formatting (CSV today) happens at the
// HTTP handler.
package export

import (
	"context"
	"strconv"
	"time"

	"github.com/ward-census/ward-census/internal/db/models"
)

// Row is one flat export record.
type Row []string

const memberPlaceholder = "No members recorded"

type householdLister interface {
	ListByWard(ctx context.Context, wardID string) ([]*models.Household, error)
}

type memberLister interface {
	ListByWard(ctx context.Context, wardID string) ([]*models.FamilyMember, error)
}

// Builder assembles export rows for a ward.
type Builder struct {
	households householdLister
	members    memberLister
}

// NewBuilder creates a Builder over the given stores.
func NewBuilder(households householdLister, members memberLister) *Builder {
	return &Builder{households: households, members: members}
}

// Header returns the column names for the flat layout, household columns
// first, in the same order BuildWardRows emits values.
func Header() Row {
	return Row{
		"House Number",
		"Full Address",
		"Landmark",
		"Ration Card Number",
		"Ration Card Type",
		"Visit Status",
		"Visited At",
		"Member Name",
		"Relationship",
		"Gender",
		"Date of Birth",
		"Education",
		"Occupation",
		"Monthly Income",
		"Mobile Number",
		"Disabled",
		"Senior Citizen",
	}
}

// BuildWardRows returns the ordered flat records for a ward. Households are
// ordered by house number and members within a household by creation time,
// matching the repository ordering, so two exports of an unchanged ward are
// byte-identical.
func (b *Builder) BuildWardRows(ctx context.Context, wardID string) ([]Row, error) {
	households, err := b.households.ListByWard(ctx, wardID)
	if err != nil {
		return nil, err
	}

	members, err := b.members.ListByWard(ctx, wardID)
	if err != nil {
		return nil, err
	}

	byHousehold := make(map[string][]*models.FamilyMember, len(households))
	for _, m := range members {
		byHousehold[m.HouseholdID] = append(byHousehold[m.HouseholdID], m)
	}

	rows := make([]Row, 0, len(members)+len(households))
	for _, h := range households {
		hm := byHousehold[h.ID]
		if len(hm) == 0 {
			rows = append(rows, placeholderRow(h))
			continue
		}
		for _, m := range hm {
			rows = append(rows, memberRow(h, m))
		}
	}

	return rows, nil
}

func householdFields(h *models.Household) []string {
	return []string{
		h.HouseNumber,
		h.FullAddress,
		strOrEmpty(h.Landmark),
		strOrEmpty(h.RationCardNumber),
		string(h.RationCardType),
		string(h.VisitStatus),
		timeOrEmpty(h.VisitedAt),
	}
}

func placeholderRow(h *models.Household) Row {
	row := householdFields(h)
	row = append(row, memberPlaceholder)
	for len(row) < len(Header()) {
		row = append(row, "")
	}
	return row
}

func memberRow(h *models.Household, m *models.FamilyMember) Row {
	row := householdFields(h)
	return append(row,
		m.FullName,
		m.RelationshipToHead,
		string(m.Gender),
		dateOrEmpty(m.DateOfBirth),
		strOrEmpty(m.Education),
		strOrEmpty(m.Occupation),
		floatOrEmpty(m.MonthlyIncome),
		strOrEmpty(m.MobileNumber),
		yesNo(m.IsDisabled),
		yesNo(m.IsSeniorCitizen),
	)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func timeOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
