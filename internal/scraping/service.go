// Package scraping runs scraping jobs through their lifecycle:
// PENDING, then RUNNING, then COMPLETED or FAILED. Terminal states are
// never left.
package scraping

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// Job messages recorded in errorMessage.
const (
	MsgManualMode = "automated scraping disabled; use the browser extraction interface instead"
	MsgNoScraper  = "no suitable scraper found for this URL"
	MsgCancelled  = "job cancelled by user"
)

// Limits for RecentJobs.
const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 50
)

// JobStore persists scraping jobs.
type JobStore interface {
	Create(in types.ScrapingJobInput) (types.ScrapingJob, error)
	FindByID(id string) (types.ScrapingJob, error)
	FindAll() ([]types.ScrapingJob, error)
	Transition(id string, step func(j *types.ScrapingJob) error) (types.ScrapingJob, error)
	Recent(limit int) ([]types.ScrapingJob, error)
	Statistics() (types.JobStats, error)
}

// EventStore persists scraped events.
type EventStore interface {
	CreateMany(ins []types.ScrapedEventInput) ([]types.ScrapedEvent, error)
	FindByJob(jobID string) ([]types.ScrapedEvent, error)
}

// Observer is told about every job that reaches a terminal state.
type Observer interface {
	JobFinished(status types.JobStatus, eventsFound int)
}

type noopObserver struct{}

func (noopObserver) JobFinished(types.JobStatus, int) {}

// Service starts, runs and cancels scraping jobs.
type Service struct {
	jobs     JobStore
	events   EventStore
	registry *Registry
	cfg      types.ScrapingConfig
	logger   *slog.Logger
	now      func() time.Time
	observer Observer

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewService returns a Service. An empty mode means manual; a nil registry
// means no scraper ever matches.
func NewService(jobs JobStore, events EventStore, registry *Registry, cfg types.ScrapingConfig, logger *slog.Logger) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	if cfg.Mode == "" {
		cfg.Mode = types.ScrapingManual
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		jobs:     jobs,
		events:   events,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "scraping"),
		now:      time.Now,
		observer: noopObserver{},
		cancels:  make(map[string]context.CancelFunc),
	}
}

// WithClock overrides the time source used for start and end times.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithObserver reports terminal jobs to o.
func (s *Service) WithObserver(o Observer) *Service {
	if o != nil {
		s.observer = o
	}
	return s
}

func (s *Service) stamp() time.Time { return s.now().UTC().Round(0) }

func (s *Service) finished(job types.ScrapingJob) types.ScrapingJob {
	s.observer.JobFinished(job.Status, job.EventsFound)
	return job
}

// StartJob records a PENDING job for url and applies the configured
// policy. In manual mode the job is completed at once with zero events. In
// automated mode the job runs through the registry, synchronously unless
// async execution is enabled; the returned job reflects the state at
// return time.
func (s *Service) StartJob(ctx context.Context, url string) (types.ScrapingJob, error) {
	job, err := s.jobs.Create(types.ScrapingJobInput{URL: url, Status: types.JobPending})
	if err != nil {
		return types.ScrapingJob{}, err
	}
	s.logger.Info("job created", "job", job.ID, "url", url, "mode", s.cfg.Mode)

	if s.cfg.Mode != types.ScrapingAutomated {
		job, err := s.jobs.Transition(job.ID, func(j *types.ScrapingJob) error {
			if err := j.Complete(s.stamp(), 0); err != nil {
				return err
			}
			msg := MsgManualMode
			j.ErrorMessage = &msg
			return nil
		})
		if err != nil {
			return types.ScrapingJob{}, err
		}
		return s.finished(job), nil
	}

	runCtx, cancel := s.jobContext(ctx)
	s.mu.Lock()
	s.cancels[job.ID] = cancel
	s.mu.Unlock()

	if !s.cfg.Async {
		return s.run(runCtx, job)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.run(runCtx, job); err != nil {
			s.logger.Error("job run failed", "job", job.ID, "error", err)
		}
	}()
	return job, nil
}

// jobContext derives the context a run executes under. Async runs outlive
// the request that started them, so they keep its values but not its
// cancellation.
func (s *Service) jobContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Async {
		parent = context.WithoutCancel(parent)
	}
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(parent, s.cfg.Timeout)
	}
	return context.WithCancel(parent)
}

// run drives one automated job to a terminal state. Scraper failures are
// recorded on the job, not returned.
func (s *Service) run(ctx context.Context, job types.ScrapingJob) (types.ScrapingJob, error) {
	id := job.ID
	defer s.release(id)

	job, err := s.jobs.Transition(id, func(j *types.ScrapingJob) error { return j.Start(s.stamp()) })
	if err != nil {
		return s.settled(id, err)
	}

	scraper, ok := s.registry.Find(job.URL)
	if !ok {
		return s.fail(id, MsgNoScraper)
	}

	log := s.logger.With("job", id, "scraper", scraper.Name())
	log.Info("job running", "url", job.URL)

	inputs, err := scraper.Scrape(ctx, job.URL)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Warn("scrape failed", "error", err)
		return s.fail(id, err.Error())
	}
	for i := range inputs {
		inputs[i].ScrapingJobID = id
	}

	created, err := s.events.CreateMany(inputs)
	if err != nil {
		log.Warn("storing scraped events failed", "error", err)
		return s.fail(id, err.Error())
	}

	job, err = s.jobs.Transition(id, func(j *types.ScrapingJob) error {
		return j.Complete(s.stamp(), len(created))
	})
	if err != nil {
		return s.settled(id, err)
	}
	log.Info("job completed", "events", len(created))
	return s.finished(job), nil
}

func (s *Service) fail(id, reason string) (types.ScrapingJob, error) {
	job, err := s.jobs.Transition(id, func(j *types.ScrapingJob) error { return j.Fail(s.stamp(), reason) })
	if err != nil {
		return s.settled(id, err)
	}
	return s.finished(job), nil
}

// settled handles a transition rejected because the job already reached a
// terminal state, typically after a cancellation. The stored job wins.
func (s *Service) settled(id string, err error) (types.ScrapingJob, error) {
	if errors.Is(err, types.ErrInvalidTransition) {
		s.logger.Info("job already settled", "job", id)
		return s.jobs.FindByID(id)
	}
	return types.ScrapingJob{}, err
}

func (s *Service) release(id string) {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// CancelJob fails a PENDING or RUNNING job. It reports false for unknown
// jobs and for jobs already COMPLETED or FAILED.
func (s *Service) CancelJob(id string) (bool, error) {
	job, err := s.jobs.Transition(id, func(j *types.ScrapingJob) error { return j.Fail(s.stamp(), MsgCancelled) })
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrInvalidTransition):
		return false, nil
	case err != nil:
		return false, err
	}
	s.release(id)
	s.finished(job)
	s.logger.Info("job cancelled", "job", id)
	return true, nil
}

// GetJob returns one job or types.ErrNotFound.
func (s *Service) GetJob(id string) (types.ScrapingJob, error) {
	return s.jobs.FindByID(id)
}

// JobEvents returns the events a job produced.
func (s *Service) JobEvents(id string) ([]types.ScrapedEvent, error) {
	return s.events.FindByJob(id)
}

// AllJobs returns every job in file order.
func (s *Service) AllJobs() ([]types.ScrapingJob, error) {
	return s.jobs.FindAll()
}

// RecentJobs returns the newest jobs. The limit is clamped to [1, 50].
func (s *Service) RecentJobs(limit int) ([]types.ScrapingJob, error) {
	return s.jobs.Recent(min(max(limit, 1), MaxRecentLimit))
}

// Stats reports job counts, success rate and today's activity.
func (s *Service) Stats() (types.JobStats, error) {
	return s.jobs.Statistics()
}

// Wait blocks until every asynchronous run has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
