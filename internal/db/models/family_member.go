package models

import "time"

// Gender of a family member as recorded during the survey.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// FamilyMember is a person recorded under a household. HouseholdID is fixed
// at creation; members do not move between households through updates.
type FamilyMember struct {
	ID                 string
	HouseholdID        string
	FullName           string
	Gender             Gender
	DateOfBirth        *time.Time
	RelationshipToHead string
	Education          *string
	Occupation         *string
	MonthlyIncome      *float64
	AadhaarNumber      *string
	MobileNumber       *string
	IsDisabled         bool
	IsSeniorCitizen    bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
