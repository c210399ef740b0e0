package types

import "math"

// OpportunityStatus is the pipeline stage of a sales opportunity.
type OpportunityStatus string

// Opportunity statuses.
const (
	OpportunityNew          OpportunityStatus = "NEW"
	OpportunityContacted    OpportunityStatus = "CONTACTED"
	OpportunityQualified    OpportunityStatus = "QUALIFIED"
	OpportunityProposalSent OpportunityStatus = "PROPOSAL_SENT"
	OpportunityNegotiating  OpportunityStatus = "NEGOTIATING"
	OpportunityClosedWon    OpportunityStatus = "CLOSED_WON"
	OpportunityClosedLost   OpportunityStatus = "CLOSED_LOST"
)

var validOpportunityStatuses = map[OpportunityStatus]bool{
	OpportunityNew:          true,
	OpportunityContacted:    true,
	OpportunityQualified:    true,
	OpportunityProposalSent: true,
	OpportunityNegotiating:  true,
	OpportunityClosedWon:    true,
	OpportunityClosedLost:   true,
}

// Valid reports whether s is a recognized opportunity status.
func (s OpportunityStatus) Valid() bool { return validOpportunityStatuses[s] }

// Priority ranks opportunities for follow-up.
type Priority string

// Priorities.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// Valid reports whether p is a recognized priority.
func (p Priority) Valid() bool { return validPriorities[p] }

// Opportunity is a potential deal tied to an event. EventName is a
// denormalized copy; EventID and ContactID are weak references.
type Opportunity struct {
	Stamp
	EventName          string            `json:"eventName"`
	EstimatedValue     *float64          `json:"estimatedValue"`
	MatchScore         float64           `json:"matchScore"`
	RecommendedProduct *string           `json:"recommendedProduct"`
	Status             OpportunityStatus `json:"status"`
	Priority           Priority          `json:"priority"`
	Notes              *string           `json:"notes"`
	FollowUpDate       *string           `json:"followUpDate"`
	ClosedAt           *string           `json:"closedAt"`
	EventID            string            `json:"eventId"`
	ContactID          *string           `json:"contactId"`
}

// OpportunityInput is the creation input for an Opportunity. Status
// defaults to NEW and Priority to MEDIUM.
type OpportunityInput struct {
	EventName          string            `json:"eventName"`
	EstimatedValue     *float64          `json:"estimatedValue"`
	MatchScore         float64           `json:"matchScore"`
	RecommendedProduct *string           `json:"recommendedProduct"`
	Status             OpportunityStatus `json:"status,omitempty"`
	Priority           Priority          `json:"priority,omitempty"`
	Notes              *string           `json:"notes"`
	FollowUpDate       *string           `json:"followUpDate"`
	ClosedAt           *string           `json:"closedAt"`
	EventID            string            `json:"eventId"`
	ContactID          *string           `json:"contactId"`
}

// Validate checks the opportunity against its schema.
func (o Opportunity) Validate() error {
	if err := o.Stamp.Validate(OpportunitiesTable); err != nil {
		return err
	}
	if err := requireText(OpportunitiesTable, "eventName", o.EventName); err != nil {
		return err
	}
	if err := requireText(OpportunitiesTable, "eventId", o.EventID); err != nil {
		return err
	}
	if math.IsNaN(o.MatchScore) || o.MatchScore < 0 || o.MatchScore > 100 {
		return Invalid(OpportunitiesTable, "matchScore", "must be between 0 and 100")
	}
	if o.EstimatedValue != nil && (math.IsNaN(*o.EstimatedValue) || math.IsInf(*o.EstimatedValue, 0)) {
		return Invalid(OpportunitiesTable, "estimatedValue", "must be a finite number")
	}
	if !o.Status.Valid() {
		return Invalid(OpportunitiesTable, "status", "unknown value "+string(o.Status))
	}
	if !o.Priority.Valid() {
		return Invalid(OpportunitiesTable, "priority", "unknown value "+string(o.Priority))
	}
	return optionalDate(OpportunitiesTable, "followUpDate", o.FollowUpDate)
}

// OpportunityStats aggregates opportunities by status and value.
type OpportunityStats struct {
	Total               int                       `json:"total"`
	New                 int                       `json:"new"`
	Qualified           int                       `json:"qualified"`
	ProposalSent        int                       `json:"proposalSent"`
	ClosedWon           int                       `json:"closedWon"`
	ClosedLost          int                       `json:"closedLost"`
	AvgMatchScore       float64                   `json:"avgMatchScore"`
	TotalEstimatedValue float64                   `json:"totalEstimatedValue"`
	ByStatus            map[OpportunityStatus]int `json:"byStatus"`
}
