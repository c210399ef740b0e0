// Package repository binds each record kind of the sales portal to its CSV
// collection and adds the kind-specific queries and statistics.
package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// Store groups the five collections of one data directory.
type Store struct {
	Events        *Events
	Contacts      *Contacts
	Opportunities *Opportunities
	ScrapingJobs  *ScrapingJobs
	ScrapedEvents *ScrapedEvents

	tables map[string]types.Table
}

// Open returns a Store over dataDir. Files are created lazily on the first
// write; a fresh directory reads as empty collections.
func Open(dataDir string, opts ...csvstore.Option) *Store {
	s := &Store{
		Events:        NewEvents(dataDir, opts...),
		Contacts:      NewContacts(dataDir, opts...),
		Opportunities: NewOpportunities(dataDir, opts...),
		ScrapingJobs:  NewScrapingJobs(dataDir, opts...),
		ScrapedEvents: NewScrapedEvents(dataDir, opts...),
	}
	s.tables = map[string]types.Table{
		types.EventsTable:        &table[types.Event, types.EventInput]{Table: s.Events.Table, stats: wrapStats(s.Events.Statistics)},
		types.ContactsTable:      &table[types.Contact, types.ContactInput]{Table: s.Contacts.Table, stats: wrapStats(s.Contacts.Statistics)},
		types.OpportunitiesTable: &table[types.Opportunity, types.OpportunityInput]{Table: s.Opportunities.Table, stats: wrapStats(s.Opportunities.Statistics)},
		types.ScrapingJobsTable:  &table[types.ScrapingJob, types.ScrapingJobInput]{Table: s.ScrapingJobs.Table, stats: wrapStats(s.ScrapingJobs.Statistics), check: types.ScrapingJobInput.ValidateNew},
		types.ScrapedEventsTable: &table[types.ScrapedEvent, types.ScrapedEventInput]{Table: s.ScrapedEvents.Table, stats: wrapStats(s.ScrapedEvents.Statistics)},
	}
	return s
}

// GetTable returns the uniform Table view of a record kind.
// Returns ErrTableNotFound if the name is not recognized.
func (s *Store) GetTable(name string) (types.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, types.ErrTableNotFound)
	}
	return t, nil
}

// Exporter is implemented by every collection; it yields the header and
// encoded rows for snapshotting.
type Exporter interface {
	Kind() string
	Columns() []csvstore.Column
	Export() ([]string, [][]string, error)
}

// Exporters lists the collections in StandardTableNames order.
func (s *Store) Exporters() []Exporter {
	return []Exporter{
		s.Events.Table,
		s.Contacts.Table,
		s.Opportunities.Table,
		s.ScrapingJobs.Table,
		s.ScrapedEvents.Table,
	}
}

// table adapts a typed collection to types.Table.
type table[T any, I any] struct {
	*csvstore.Table[T, I]
	stats func() (any, error)
	check func(in I) error // optional; vets inputs arriving as JSON
}

func (t *table[T, I]) Name() string { return t.Kind() }

func (t *table[T, I]) Get(id string) (any, error) {
	rec, err := t.FindByID(id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create decodes a JSON creation input. Unknown fields are rejected.
// Scraping jobs must start PENDING with no lifecycle fields set.
func (t *table[T, I]) Create(data []byte) (any, error) {
	var in I
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return nil, types.Invalid(t.Kind(), "", err.Error())
	}
	if t.check != nil {
		if err := t.check(in); err != nil {
			return nil, err
		}
	}
	rec, err := t.Table.Create(in)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *table[T, I]) Update(id string, fields map[string]any) (any, error) {
	rec, err := t.Table.Update(id, fields)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *table[T, I]) Delete(id string) (bool, error) {
	return t.Table.Delete(id)
}

func (t *table[T, I]) List() ([]any, error) {
	records, err := t.FindAll()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

func (t *table[T, I]) Statistics() (any, error) {
	return t.stats()
}

func wrapStats[S any](fn func() (S, error)) func() (any, error) {
	return func() (any, error) {
		s, err := fn()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
