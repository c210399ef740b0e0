package types

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the lifecycle state of a scraping job.
type JobStatus string

// Job statuses. COMPLETED and FAILED are terminal.
const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

var validJobStatuses = map[JobStatus]bool{
	JobPending:   true,
	JobRunning:   true,
	JobCompleted: true,
	JobFailed:    true,
}

// Valid reports whether s is a recognized job status.
func (s JobStatus) Valid() bool { return validJobStatuses[s] }

// Terminal reports whether s is COMPLETED or FAILED.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ScrapingJob records one attempt to harvest events from a source URL.
type ScrapingJob struct {
	Stamp
	URL          string     `json:"url"`
	Status       JobStatus  `json:"status"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	EventsFound  int        `json:"eventsFound"`
	ErrorMessage *string    `json:"errorMessage"`
}

// ScrapingJobInput is the creation input for a ScrapingJob. Status defaults
// to PENDING.
type ScrapingJobInput struct {
	URL          string     `json:"url"`
	Status       JobStatus  `json:"status,omitempty"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	EventsFound  int        `json:"eventsFound"`
	ErrorMessage *string    `json:"errorMessage"`
}

// Validate checks the job against its schema.
func (j ScrapingJob) Validate() error {
	if err := j.Stamp.Validate(ScrapingJobsTable); err != nil {
		return err
	}
	if err := requireURL(ScrapingJobsTable, "url", j.URL); err != nil {
		return err
	}
	if !j.Status.Valid() {
		return Invalid(ScrapingJobsTable, "status", "unknown value "+string(j.Status))
	}
	if j.EventsFound < 0 {
		return Invalid(ScrapingJobsTable, "eventsFound", "must not be negative")
	}
	return nil
}

// ValidateNew checks an input for a job created outside the job service:
// it must start PENDING, with no start, end, count or message.
func (in ScrapingJobInput) ValidateNew() error {
	switch {
	case in.Status != "" && in.Status != JobPending:
		return Invalid(ScrapingJobsTable, "status", "new jobs start as "+string(JobPending))
	case in.StartTime != nil:
		return Invalid(ScrapingJobsTable, "startTime", "set when the job starts")
	case in.EndTime != nil:
		return Invalid(ScrapingJobsTable, "endTime", "set when the job finishes")
	case in.EventsFound != 0:
		return Invalid(ScrapingJobsTable, "eventsFound", "set when the job completes")
	case in.ErrorMessage != nil:
		return Invalid(ScrapingJobsTable, "errorMessage", "set when the job fails")
	}
	return nil
}

// Start moves a pending job to RUNNING and stamps its start time.
func (j *ScrapingJob) Start(now time.Time) error {
	if j.Status != JobPending {
		return ErrInvalidTransition
	}
	j.Status = JobRunning
	j.StartTime = &now
	return nil
}

// Complete moves a pending or running job to COMPLETED. A job completed
// straight from PENDING gets its start time stamped too.
func (j *ScrapingJob) Complete(now time.Time, eventsFound int) error {
	if j.Status.Terminal() {
		return ErrInvalidTransition
	}
	if j.StartTime == nil {
		j.StartTime = &now
	}
	j.Status = JobCompleted
	j.EndTime = &now
	j.EventsFound = eventsFound
	j.ErrorMessage = nil
	return nil
}

// Fail moves a pending or running job to FAILED with a reason.
func (j *ScrapingJob) Fail(now time.Time, reason string) error {
	if j.Status.Terminal() {
		return ErrInvalidTransition
	}
	j.Status = JobFailed
	j.EndTime = &now
	j.ErrorMessage = &reason
	return nil
}

// DefaultCountry is assigned to scraped events with no country.
const DefaultCountry = "Switzerland"

// ScrapedEvent is a raw harvest result tied to the job that produced it.
type ScrapedEvent struct {
	Stamp
	ScrapingJobID string            `json:"scrapingJobId"`
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	URL           string            `json:"url"`
	StartDate     *string           `json:"startDate"`
	EndDate       *string           `json:"endDate"`
	Location      *string           `json:"location"`
	City          *string           `json:"city"`
	Country       string            `json:"country"`
	Topic         *string           `json:"topic"`
	Organizer     *string           `json:"organizer"`
	Website       *string           `json:"website"`
	RawData       datatypes.JSONMap `json:"rawData"`
}

// ScrapedEventInput is the creation input for a ScrapedEvent. Country
// defaults to DefaultCountry.
type ScrapedEventInput struct {
	ScrapingJobID string            `json:"scrapingJobId"`
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	URL           string            `json:"url"`
	StartDate     *string           `json:"startDate"`
	EndDate       *string           `json:"endDate"`
	Location      *string           `json:"location"`
	City          *string           `json:"city"`
	Country       string            `json:"country,omitempty"`
	Topic         *string           `json:"topic"`
	Organizer     *string           `json:"organizer"`
	Website       *string           `json:"website"`
	RawData       datatypes.JSONMap `json:"rawData"`
}

// Validate checks the scraped event against its schema.
func (e ScrapedEvent) Validate() error {
	if err := e.Stamp.Validate(ScrapedEventsTable); err != nil {
		return err
	}
	if err := requireText(ScrapedEventsTable, "scrapingJobId", e.ScrapingJobID); err != nil {
		return err
	}
	if err := requireText(ScrapedEventsTable, "name", e.Name); err != nil {
		return err
	}
	if err := requireURL(ScrapedEventsTable, "url", e.URL); err != nil {
		return err
	}
	if e.Website != nil {
		if err := requireURL(ScrapedEventsTable, "website", *e.Website); err != nil {
			return err
		}
	}
	if err := requireText(ScrapedEventsTable, "country", e.Country); err != nil {
		return err
	}
	if err := optionalDate(ScrapedEventsTable, "startDate", e.StartDate); err != nil {
		return err
	}
	return optionalDate(ScrapedEventsTable, "endDate", e.EndDate)
}

// JobActivity counts jobs created and events found on the current day.
type JobActivity struct {
	JobsToday   int `json:"jobsToday"`
	EventsToday int `json:"eventsToday"`
}

// JobStats aggregates scraping jobs.
type JobStats struct {
	TotalJobs        int         `json:"totalJobs"`
	CompletedJobs    int         `json:"completedJobs"`
	RunningJobs      int         `json:"runningJobs"`
	FailedJobs       int         `json:"failedJobs"`
	PendingJobs      int         `json:"pendingJobs"`
	TotalEventsFound int         `json:"totalEventsFound"`
	SuccessRate      int         `json:"successRate"`
	RecentActivity   JobActivity `json:"recentActivity"`
}

// ScrapedEventStats aggregates scraped events by country and job.
type ScrapedEventStats struct {
	Total     int            `json:"total"`
	ByCountry map[string]int `json:"byCountry"`
	ByJob     map[string]int `json:"byJob"`
}
