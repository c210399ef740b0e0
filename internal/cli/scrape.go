package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/salesdesk/internal/scraping"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Start, inspect and cancel scraping jobs",
	}
	cmd.AddCommand(newScrapeStartCmd(), newScrapeCancelCmd(), newScrapeJobsCmd(), newScrapeEventsCmd())
	return cmd
}

func newScrapeStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <url>",
		Short: "Record a scraping job for a URL and run it",
		Long: "Record a scraping job for a URL. In manual mode the job completes at once\n" +
			"and events come in through the browser extraction flow; in automated mode\n" +
			"the job runs the matching scraper before the command returns.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			job, err := a.scrapingService(false).StartJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(cmd, job, func(w io.Writer) error {
				fmt.Fprintf(w, "Job %s: %s, %d events found\n", job.ID, job.Status, job.EventsFound)
				if job.ErrorMessage != nil {
					fmt.Fprintln(w, *job.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func newScrapeCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Fail a pending or running job",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			ok, err := a.scrapingService(false).CancelJob(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return userError("job %s not found or already finished", args[0])
			}
			fmt.Fprintf(out(cmd), "Cancelled job %s\n", args[0])
			return nil
		},
	}
}

func newScrapeJobsCmd() *cobra.Command {
	var recent int
	var stats bool
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List scraping jobs",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			svc := a.scrapingService(false)
			if stats {
				s, err := svc.Stats()
				if err != nil {
					return err
				}
				return printJSON(out(cmd), s)
			}

			var jobs []types.ScrapingJob
			if recent > 0 {
				jobs, err = svc.RecentJobs(recent)
			} else {
				jobs, err = svc.AllJobs()
			}
			if err != nil {
				return err
			}
			if jobs == nil {
				jobs = []types.ScrapingJob{}
			}
			return emit(cmd, jobs, func(w io.Writer) error {
				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					rows = append(rows, []string{j.ID, string(j.Status), strconv.Itoa(j.EventsFound), j.URL})
				}
				return printTable(w, []string{"ID", "STATUS", "EVENTS", "URL"}, rows)
			})
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, fmt.Sprintf("only the newest N jobs (at most %d)", scraping.MaxRecentLimit))
	cmd.Flags().BoolVar(&stats, "stats", false, "print job statistics instead")
	return cmd
}

func newScrapeEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events <job-id>",
		Short: "List the events a job produced",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			svc := a.scrapingService(false)
			if _, err := svc.GetJob(args[0]); err != nil {
				return err
			}
			events, err := svc.JobEvents(args[0])
			if err != nil {
				return err
			}
			if events == nil {
				events = []types.ScrapedEvent{}
			}
			return printJSON(out(cmd), events)
		},
	}
}
