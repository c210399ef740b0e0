package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

func TestScrapingJobsCreateAndTransition(t *testing.T) {
	r := NewScrapingJobs(t.TempDir(), fixedClock())

	j, err := r.Create(types.ScrapingJobInput{URL: "https://www.swisscongress.ch/agenda"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(j.ID, JobIDPrefix))
	assert.Equal(t, types.JobPending, j.Status)

	running, err := r.Transition(j.ID, func(job *types.ScrapingJob) error { return job.Start(fixedNow) })
	require.NoError(t, err)
	assert.Equal(t, types.JobRunning, running.Status)
	require.NotNil(t, running.StartTime)

	done, err := r.Transition(j.ID, func(job *types.ScrapingJob) error { return job.Complete(fixedNow, 5) })
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, done.Status)
	assert.Equal(t, 5, done.EventsFound)

	_, err = r.Transition(j.ID, func(job *types.ScrapingJob) error { return job.Fail(fixedNow, "late") })
	assert.ErrorIs(t, err, types.ErrInvalidTransition)

	stored, err := r.FindByID(j.ID)
	require.NoError(t, err)
	assert.Equal(t, done, stored)

	_, err = r.Create(types.ScrapingJobInput{URL: "not-a-url"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestScrapingJobsFindByStatus(t *testing.T) {
	r := NewScrapingJobs(t.TempDir(), fixedClock())
	_, err := r.Create(types.ScrapingJobInput{URL: "https://a.ch"})
	require.NoError(t, err)
	_, err = r.Create(types.ScrapingJobInput{URL: "https://b.ch", Status: types.JobFailed})
	require.NoError(t, err)

	pending, err := r.FindByStatus(types.JobPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "https://a.ch", pending[0].URL)

	_, err = r.FindByStatus("DONE")
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestScrapingJobsRecentAndStatistics(t *testing.T) {
	now := fixedNow.Add(-48 * time.Hour)
	r := NewScrapingJobs(t.TempDir(), csvstore.WithClock(func() time.Time { return now }))

	create := func(status types.JobStatus, found int) {
		t.Helper()
		_, err := r.Create(types.ScrapingJobInput{URL: "https://x.ch", Status: status, EventsFound: found})
		require.NoError(t, err)
	}
	create(types.JobCompleted, 4)
	now = fixedNow
	create(types.JobCompleted, 2)
	now = fixedNow.Add(time.Minute)
	create(types.JobFailed, 0)
	now = fixedNow.Add(2 * time.Minute)
	create(types.JobRunning, 0)

	recent, err := r.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, types.JobRunning, recent[0].Status)
	assert.Equal(t, types.JobFailed, recent[1].Status)

	stats, err := r.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalJobs)
	assert.Equal(t, 2, stats.CompletedJobs)
	assert.Equal(t, 1, stats.FailedJobs)
	assert.Equal(t, 1, stats.RunningJobs)
	assert.Equal(t, 6, stats.TotalEventsFound)
	assert.Equal(t, 50, stats.SuccessRate)
	assert.Equal(t, 3, stats.RecentActivity.JobsToday)
	assert.Equal(t, 2, stats.RecentActivity.EventsToday)
}

func TestScrapingJobsSuccessRateRounds(t *testing.T) {
	r := NewScrapingJobs(t.TempDir(), fixedClock())
	for _, s := range []types.JobStatus{types.JobCompleted, types.JobCompleted, types.JobFailed} {
		_, err := r.Create(types.ScrapingJobInput{URL: "https://x.ch", Status: s})
		require.NoError(t, err)
	}
	stats, err := r.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 67, stats.SuccessRate)
}

func TestScrapedEventsQueries(t *testing.T) {
	r := NewScrapedEvents(t.TempDir(), fixedClock())

	inputs := []types.ScrapedEventInput{
		{ScrapingJobID: "job-1", Name: "Swiss Digital Health Summit", URL: "https://c.ch/1", City: types.Ptr("Zürich")},
		{ScrapingJobID: "job-1", Name: "Congress", URL: "https://c.ch/2", City: types.Ptr("Basel"), Topic: types.Ptr("Oncology")},
		{ScrapingJobID: "job-2", Name: "Forum", URL: "https://c.ch/3", Description: types.Ptr("Annual oncology meeting"), Country: "Germany"},
	}
	var created []types.ScrapedEvent
	for _, in := range inputs {
		e, err := r.Create(in)
		require.NoError(t, err)
		created = append(created, e)
	}
	assert.True(t, strings.HasPrefix(created[0].ID, ScrapedEventIDPrefix))
	assert.Equal(t, types.DefaultCountry, created[0].Country)

	byJob, err := r.FindByJob("job-1")
	require.NoError(t, err)
	assert.Len(t, byJob, 2)

	byCity, err := r.FindByCity("zür")
	require.NoError(t, err)
	require.Len(t, byCity, 1)
	assert.Equal(t, created[0].ID, byCity[0].ID)

	byTopic, err := r.FindByTopic("ONCOLOGY")
	require.NoError(t, err)
	assert.Len(t, byTopic, 2)

	byName, err := r.FindByTopic("health")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	stats, err := r.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"Switzerland": 2, "Germany": 1}, stats.ByCountry)
	assert.Equal(t, map[string]int{"job-1": 2, "job-2": 1}, stats.ByJob)
}

func TestScrapedEventRawDataRoundTrip(t *testing.T) {
	r := NewScrapedEvents(t.TempDir(), fixedClock())

	raw := datatypes.JSONMap{"source": "swiss-congress", "element": "<div class=\"event\">a, b</div>"}
	e, err := r.Create(types.ScrapedEventInput{ScrapingJobID: "job-1", Name: "n", URL: "https://c.ch", RawData: raw})
	require.NoError(t, err)

	got, err := r.FindByID(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "swiss-congress", got.RawData["source"])
	assert.Equal(t, "<div class=\"event\">a, b</div>", got.RawData["element"])

	noRaw, err := r.Create(types.ScrapedEventInput{ScrapingJobID: "job-1", Name: "m", URL: "https://c.ch"})
	require.NoError(t, err)
	assert.Nil(t, noRaw.RawData)
}
