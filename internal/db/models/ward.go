package models

import "time"

// Ward is an administrative ward, the unit that census data is scoped to.
type Ward struct {
	ID          string
	Name        string
	WardNumber  int
	LocalBody   string
	District    string
	TotalHouses int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
