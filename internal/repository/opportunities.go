package repository

import (
	"cmp"
	"slices"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// DefaultTopLimit is the number of opportunities TopByScore callers get
// when they do not ask for a specific count.
const DefaultTopLimit = 10

var opportunitySchema = csvstore.Schema[types.Opportunity, types.OpportunityInput]{
	Kind: types.OpportunitiesTable,
	File: types.FileName(types.OpportunitiesTable),
	Columns: csvstore.Stamped(
		csvstore.Text("eventName"),
		csvstore.Column{Name: "estimatedValue", Type: csvstore.Float, Nullable: true},
		csvstore.Column{Name: "matchScore", Type: csvstore.Float},
		csvstore.NullText("recommendedProduct"),
		csvstore.Text("status"),
		csvstore.Text("priority"),
		csvstore.NullText("notes"),
		csvstore.NullText("followUpDate"),
		csvstore.NullText("closedAt"),
		csvstore.Text("eventId"),
		csvstore.NullText("contactId"),
	),
	New: func(in types.OpportunityInput, s types.Stamp) types.Opportunity {
		status := in.Status
		if status == "" {
			status = types.OpportunityNew
		}
		priority := in.Priority
		if priority == "" {
			priority = types.PriorityMedium
		}
		return types.Opportunity{
			Stamp:              s,
			EventName:          in.EventName,
			EstimatedValue:     in.EstimatedValue,
			MatchScore:         in.MatchScore,
			RecommendedProduct: in.RecommendedProduct,
			Status:             status,
			Priority:           priority,
			Notes:              in.Notes,
			FollowUpDate:       in.FollowUpDate,
			ClosedAt:           in.ClosedAt,
			EventID:            in.EventID,
			ContactID:          in.ContactID,
		}
	},
	Stamp:    func(o *types.Opportunity) *types.Stamp { return &o.Stamp },
	Validate: types.Opportunity.Validate,
}

// Opportunities stores potential deals in opportunities.csv.
type Opportunities struct {
	*csvstore.Table[types.Opportunity, types.OpportunityInput]
}

// NewOpportunities opens the opportunities collection in dataDir.
func NewOpportunities(dataDir string, opts ...csvstore.Option) *Opportunities {
	return &Opportunities{csvstore.New(dataDir, opportunitySchema, opts...)}
}

// FindByEvent returns the opportunities tied to an event.
func (r *Opportunities) FindByEvent(eventID string) ([]types.Opportunity, error) {
	return r.Filter(func(o types.Opportunity) bool { return o.EventID == eventID })
}

// TopByScore returns at most n opportunities ordered by match score,
// highest first. Equal scores keep their file order.
func (r *Opportunities) TopByScore(n int) ([]types.Opportunity, error) {
	opps, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(opps, func(a, b types.Opportunity) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
	n = max(n, 0)
	if len(opps) > n {
		opps = opps[:n]
	}
	return opps, nil
}

// Statistics counts opportunities by status and sums their value. Absent
// estimated values contribute nothing; the average score of an empty
// collection is 0.
func (r *Opportunities) Statistics() (types.OpportunityStats, error) {
	opps, err := r.FindAll()
	if err != nil {
		return types.OpportunityStats{}, err
	}
	stats := types.OpportunityStats{Total: len(opps), ByStatus: map[types.OpportunityStatus]int{}}
	var scoreSum float64
	for _, o := range opps {
		stats.ByStatus[o.Status]++
		scoreSum += o.MatchScore
		if o.EstimatedValue != nil {
			stats.TotalEstimatedValue += *o.EstimatedValue
		}
	}
	if len(opps) > 0 {
		stats.AvgMatchScore = scoreSum / float64(len(opps))
	}
	stats.New = stats.ByStatus[types.OpportunityNew]
	stats.Qualified = stats.ByStatus[types.OpportunityQualified]
	stats.ProposalSent = stats.ByStatus[types.OpportunityProposalSent]
	stats.ClosedWon = stats.ByStatus[types.OpportunityClosedWon]
	stats.ClosedLost = stats.ByStatus[types.OpportunityClosedLost]
	return stats, nil
}
