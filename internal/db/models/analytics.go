package models

// WardAnalytics aggregates census progress for one ward. Counts are computed
// on demand from current rows, never cached. Visited plus not-visited always
// equals the household total; "visited" here means any status other than
// NOT_VISITED, while VerifiedHouseholds counts fully completed visits.
type WardAnalytics struct {
	WardID               string         `db:"-" json:"wardId"`
	TotalHouseholds      int            `db:"total_households" json:"totalHouseholds"`
	VisitedHouseholds    int            `db:"visited_households" json:"visitedHouseholds"`
	NotVisitedHouseholds int            `db:"not_visited_households" json:"notVisitedHouseholds"`
	VerifiedHouseholds   int            `db:"verified_households" json:"verifiedHouseholds"`
	TotalPopulation      int            `db:"total_population" json:"totalPopulation"`
	SeniorCitizens       int            `db:"senior_citizens" json:"seniorCitizens"`
	DisabledPersons      int            `db:"disabled_persons" json:"disabledPersons"`
	RationCards          map[string]int `db:"-" json:"rationCardDistribution"`
	Genders              map[string]int `db:"-" json:"genderDistribution"`
}

// GlobalStats is the system-wide snapshot shown on the admin dashboard.
// ActiveAgents counts accounts with role AGENT that are still active.
type GlobalStats struct {
	TotalWards      int `db:"total_wards" json:"totalWards"`
	TotalUsers      int `db:"total_users" json:"totalUsers"`
	TotalHouseholds int `db:"total_households" json:"totalHouseholds"`
	TotalPopulation int `db:"total_population" json:"totalPopulation"`
	ActiveAgents    int `db:"active_agents" json:"activeAgents"`
}
