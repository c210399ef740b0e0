package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// fakeTable is a types.Table with a fixed record list.
type fakeTable struct {
	name    string
	records []any
	err     error
}

func (f fakeTable) Name() string                               { return f.name }
func (f fakeTable) Get(string) (any, error)                    { return nil, types.ErrNotFound }
func (f fakeTable) Create([]byte) (any, error)                 { return nil, errors.New("read only") }
func (f fakeTable) Update(string, map[string]any) (any, error) { return nil, errors.New("read only") }
func (f fakeTable) Delete(string) (bool, error)                { return false, nil }
func (f fakeTable) List() ([]any, error)                       { return f.records, f.err }
func (f fakeTable) Statistics() (any, error)                   { return nil, nil }

func TestJobFinished(t *testing.T) {
	m := New()
	m.JobFinished(types.JobCompleted, 3)
	m.JobFinished(types.JobCompleted, 2)
	m.JobFinished(types.JobFailed, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobs.WithLabelValues("COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("FAILED")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.scrapedEvents))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "GET /api/events", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/events", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))
}

func TestWatchTables(t *testing.T) {
	tables := []types.Table{
		fakeTable{name: "events", records: []any{1, 2}},
		fakeTable{name: "contacts"},
	}
	m := New()
	require.NoError(t, m.WatchTables(tables...))
	assert.Equal(t, 2, testutil.CollectAndCount(&recordCollector{tables: tables}, "salesdesk_records"))

	// Registering a second collector for the same metric is rejected.
	assert.Error(t, m.WatchTables(fakeTable{name: "events"}))
}
