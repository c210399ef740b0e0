package types

// RecentActivity counts records created in the trailing 24 hours.
type RecentActivity struct {
	NewEvents        int `json:"newEvents"`
	NewContacts      int `json:"newContacts"`
	NewOpportunities int `json:"newOpportunities"`
}

// DashboardStats is a point-in-time snapshot across the business kinds.
type DashboardStats struct {
	Events         EventStats       `json:"events"`
	Contacts       ContactStats     `json:"contacts"`
	Opportunities  OpportunityStats `json:"opportunities"`
	RecentActivity RecentActivity   `json:"recentActivity"`
}
