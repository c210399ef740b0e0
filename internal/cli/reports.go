package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/repository"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the combined event, contact and opportunity statistics",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			stats, err := a.dashboardService().Stats(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, stats, func(w io.Writer) error {
				fmt.Fprintf(w, "Events:        %d (%d discovered)\n", stats.Events.Total, stats.Events.Discovered)
				fmt.Fprintf(w, "Contacts:      %d (%d verified)\n", stats.Contacts.Total, stats.Contacts.Verified)
				fmt.Fprintf(w, "Opportunities: %d (avg score %.1f, value %.2f)\n",
					stats.Opportunities.Total, stats.Opportunities.AvgMatchScore, stats.Opportunities.TotalEstimatedValue)
				fmt.Fprintf(w, "Last 24h:      %d events, %d contacts, %d opportunities\n",
					stats.RecentActivity.NewEvents, stats.RecentActivity.NewContacts, stats.RecentActivity.NewOpportunities)
				return nil
			})
		},
	}
}

func newUpcomingCmd() *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List events starting today or later",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			var events []types.Event
			if country != "" {
				events, err = a.store.Events.FindUpcomingByCountry(country)
			} else {
				events, err = a.store.Events.FindUpcoming()
			}
			if err != nil {
				return err
			}
			if events == nil {
				events = []types.Event{}
			}
			return emit(cmd, events, func(w io.Writer) error {
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rows = append(rows, []string{e.ID, deref(e.StartDate), e.Name, deref(e.City), deref(e.Country)})
				}
				return printTable(w, []string{"ID", "START", "NAME", "CITY", "COUNTRY"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "only events in this country")
	return cmd
}

func newTopOpportunitiesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top-opportunities",
		Short: "List the opportunities with the highest match score",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return userError("--limit must not be negative")
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			top, err := a.store.Opportunities.TopByScore(limit)
			if err != nil {
				return err
			}
			if top == nil {
				top = []types.Opportunity{}
			}
			return emit(cmd, top, func(w io.Writer) error {
				rows := make([][]string, 0, len(top))
				for _, o := range top {
					rows = append(rows, []string{o.ID, strconv.FormatFloat(o.MatchScore, 'f', -1, 64), string(o.Status), o.EventName})
				}
				return printTable(w, []string{"ID", "SCORE", "STATUS", "EVENT"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", repository.DefaultTopLimit, "number of opportunities")
	return cmd
}
