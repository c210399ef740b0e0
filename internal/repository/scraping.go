package repository

import (
	"math"
	"slices"
	"strings"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// Id prefixes for the scraping kinds.
const (
	JobIDPrefix          = "job-"
	ScrapedEventIDPrefix = "event-"
)

var scrapingJobSchema = csvstore.Schema[types.ScrapingJob, types.ScrapingJobInput]{
	Kind: types.ScrapingJobsTable,
	File: types.FileName(types.ScrapingJobsTable),
	Columns: csvstore.Stamped(
		csvstore.Text("url"),
		csvstore.Text("status"),
		csvstore.NullTimestamp("startTime"),
		csvstore.NullTimestamp("endTime"),
		csvstore.Column{Name: "eventsFound", Type: csvstore.Int},
		csvstore.NullText("errorMessage"),
	),
	IDPrefix:  JobIDPrefix,
	// Lifecycle fields change only through ScrapingJobs.Transition.
	Immutable: []string{"url", "status", "startTime", "endTime", "eventsFound", "errorMessage"},
	New: func(in types.ScrapingJobInput, s types.Stamp) types.ScrapingJob {
		status := in.Status
		if status == "" {
			status = types.JobPending
		}
		return types.ScrapingJob{
			Stamp:        s,
			URL:          in.URL,
			Status:       status,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			EventsFound:  in.EventsFound,
			ErrorMessage: in.ErrorMessage,
		}
	},
	Stamp:    func(j *types.ScrapingJob) *types.Stamp { return &j.Stamp },
	Validate: types.ScrapingJob.Validate,
}

// ScrapingJobs stores scraping job records in scraping-jobs.csv.
type ScrapingJobs struct {
	*csvstore.Table[types.ScrapingJob, types.ScrapingJobInput]
}

// NewScrapingJobs opens the scraping job collection in dataDir.
func NewScrapingJobs(dataDir string, opts ...csvstore.Option) *ScrapingJobs {
	return &ScrapingJobs{csvstore.New(dataDir, scrapingJobSchema, opts...)}
}

// FindByStatus returns the jobs in the given state.
func (r *ScrapingJobs) FindByStatus(status types.JobStatus) ([]types.ScrapingJob, error) {
	if !status.Valid() {
		return nil, types.ErrInvalidStatus
	}
	return r.Filter(func(j types.ScrapingJob) bool { return j.Status == status })
}

// Transition applies a state-machine step to a stored job. The step runs
// under the table lock, so it always sees the current state.
func (r *ScrapingJobs) Transition(id string, step func(j *types.ScrapingJob) error) (types.ScrapingJob, error) {
	return r.Mutate(id, step)
}

// Recent returns at most limit jobs, newest first.
func (r *ScrapingJobs) Recent(limit int) ([]types.ScrapingJob, error) {
	jobs, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(jobs, func(a, b types.ScrapingJob) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	limit = max(limit, 0)
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Statistics counts jobs by state and reports today's activity. The
// success rate is the rounded percentage of completed jobs.
func (r *ScrapingJobs) Statistics() (types.JobStats, error) {
	jobs, err := r.FindAll()
	if err != nil {
		return types.JobStats{}, err
	}
	today := r.Now().Format(types.DateLayout)

	stats := types.JobStats{TotalJobs: len(jobs)}
	for _, j := range jobs {
		switch j.Status {
		case types.JobCompleted:
			stats.CompletedJobs++
		case types.JobRunning:
			stats.RunningJobs++
		case types.JobFailed:
			stats.FailedJobs++
		case types.JobPending:
			stats.PendingJobs++
		}
		stats.TotalEventsFound += j.EventsFound
		if j.CreatedAt.UTC().Format(types.DateLayout) == today {
			stats.RecentActivity.JobsToday++
			stats.RecentActivity.EventsToday += j.EventsFound
		}
	}
	if stats.TotalJobs > 0 {
		stats.SuccessRate = int(math.Round(float64(stats.CompletedJobs) / float64(stats.TotalJobs) * 100))
	}
	return stats, nil
}

var scrapedEventSchema = csvstore.Schema[types.ScrapedEvent, types.ScrapedEventInput]{
	Kind: types.ScrapedEventsTable,
	File: types.FileName(types.ScrapedEventsTable),
	Columns: csvstore.Stamped(
		csvstore.Text("scrapingJobId"),
		csvstore.Text("name"),
		csvstore.NullText("description"),
		csvstore.Text("url"),
		csvstore.NullText("startDate"),
		csvstore.NullText("endDate"),
		csvstore.NullText("location"),
		csvstore.NullText("city"),
		csvstore.Text("country"),
		csvstore.NullText("topic"),
		csvstore.NullText("organizer"),
		csvstore.NullText("website"),
		csvstore.Column{Name: "rawData", Type: csvstore.JSON, Nullable: true},
	),
	IDPrefix:  ScrapedEventIDPrefix,
	Immutable: []string{"scrapingJobId"},
	New: func(in types.ScrapedEventInput, s types.Stamp) types.ScrapedEvent {
		country := in.Country
		if country == "" {
			country = types.DefaultCountry
		}
		return types.ScrapedEvent{
			Stamp:         s,
			ScrapingJobID: in.ScrapingJobID,
			Name:          in.Name,
			Description:   in.Description,
			URL:           in.URL,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			Location:      in.Location,
			City:          in.City,
			Country:       country,
			Topic:         in.Topic,
			Organizer:     in.Organizer,
			Website:       in.Website,
			RawData:       in.RawData,
		}
	},
	Stamp:    func(e *types.ScrapedEvent) *types.Stamp { return &e.Stamp },
	Validate: types.ScrapedEvent.Validate,
}

// ScrapedEvents stores raw harvest results in scraped-events.csv.
type ScrapedEvents struct {
	*csvstore.Table[types.ScrapedEvent, types.ScrapedEventInput]
}

// NewScrapedEvents opens the scraped event collection in dataDir.
func NewScrapedEvents(dataDir string, opts ...csvstore.Option) *ScrapedEvents {
	return &ScrapedEvents{csvstore.New(dataDir, scrapedEventSchema, opts...)}
}

// FindByJob returns the events produced by one scraping job.
func (r *ScrapedEvents) FindByJob(jobID string) ([]types.ScrapedEvent, error) {
	return r.Filter(func(e types.ScrapedEvent) bool { return e.ScrapingJobID == jobID })
}

// FindByCity returns events whose city contains city, ignoring case.
func (r *ScrapedEvents) FindByCity(city string) ([]types.ScrapedEvent, error) {
	needle := strings.ToLower(city)
	return r.Filter(func(e types.ScrapedEvent) bool {
		return containsFold(e.City, needle)
	})
}

// FindByTopic returns events whose topic, name or description contains
// topic, ignoring case.
func (r *ScrapedEvents) FindByTopic(topic string) ([]types.ScrapedEvent, error) {
	needle := strings.ToLower(topic)
	return r.Filter(func(e types.ScrapedEvent) bool {
		return containsFold(e.Topic, needle) ||
			strings.Contains(strings.ToLower(e.Name), needle) ||
			containsFold(e.Description, needle)
	})
}

// Statistics counts scraped events by country and by job.
func (r *ScrapedEvents) Statistics() (types.ScrapedEventStats, error) {
	events, err := r.FindAll()
	if err != nil {
		return types.ScrapedEventStats{}, err
	}
	stats := types.ScrapedEventStats{
		Total:     len(events),
		ByCountry: map[string]int{},
		ByJob:     map[string]int{},
	}
	for _, e := range events {
		stats.ByCountry[e.Country]++
		stats.ByJob[e.ScrapingJobID]++
	}
	return stats, nil
}

func containsFold(s *string, lowerNeedle string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), lowerNeedle)
}
