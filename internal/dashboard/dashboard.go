// Package dashboard aggregates the business collections into one
// point-in-time snapshot.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// RecentWindow is how far back a record counts as recent activity.
const RecentWindow = 24 * time.Hour

// Source is the slice of a collection the dashboard reads. The typed
// repositories satisfy it.
type Source[T any, S any] interface {
	FindAll() ([]T, error)
	Statistics() (S, error)
}

// Service computes dashboard snapshots. Nothing is cached; every call
// reads the files afresh.
type Service struct {
	events        Source[types.Event, types.EventStats]
	contacts      Source[types.Contact, types.ContactStats]
	opportunities Source[types.Opportunity, types.OpportunityStats]
	now           func() time.Time
}

// NewService returns a Service over the three business collections.
func NewService(
	events Source[types.Event, types.EventStats],
	contacts Source[types.Contact, types.ContactStats],
	opportunities Source[types.Opportunity, types.OpportunityStats],
) *Service {
	return &Service{events: events, contacts: contacts, opportunities: opportunities, now: time.Now}
}

// WithClock overrides the time source used for the recent-activity window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Stats loads statistics and full record sets for events, contacts and
// opportunities concurrently. Any failure fails the whole snapshot, as does
// a context cancelled while the files were being read.
func (s *Service) Stats(ctx context.Context) (types.DashboardStats, error) {
	var (
		out           types.DashboardStats
		events        []types.Event
		contacts      []types.Contact
		opportunities []types.Opportunity
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		out.Events, err = s.events.Statistics()
		return err
	})
	g.Go(func() (err error) {
		out.Contacts, err = s.contacts.Statistics()
		return err
	})
	g.Go(func() (err error) {
		out.Opportunities, err = s.opportunities.Statistics()
		return err
	})
	g.Go(func() (err error) {
		events, err = s.events.FindAll()
		return err
	})
	g.Go(func() (err error) {
		contacts, err = s.contacts.FindAll()
		return err
	})
	g.Go(func() (err error) {
		opportunities, err = s.opportunities.FindAll()
		return err
	})
	if err := g.Wait(); err != nil {
		return types.DashboardStats{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.DashboardStats{}, err
	}

	since := s.now().Add(-RecentWindow)
	out.RecentActivity = types.RecentActivity{
		NewEvents:        countSince(events, since, func(e types.Event) time.Time { return e.CreatedAt }),
		NewContacts:      countSince(contacts, since, func(c types.Contact) time.Time { return c.CreatedAt }),
		NewOpportunities: countSince(opportunities, since, func(o types.Opportunity) time.Time { return o.CreatedAt }),
	}
	return out, nil
}

func countSince[T any](records []T, since time.Time, createdAt func(T) time.Time) int {
	n := 0
	for _, r := range records {
		if createdAt(r).After(since) {
			n++
		}
	}
	return n
}
