package repository

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

var eventSchema = csvstore.Schema[types.Event, types.EventInput]{
	Kind: types.EventsTable,
	File: types.FileName(types.EventsTable),
	Columns: csvstore.Stamped(
		csvstore.Text("name"),
		csvstore.NullText("description"),
		csvstore.NullText("website"),
		csvstore.NullText("startDate"),
		csvstore.NullText("endDate"),
		csvstore.NullText("location"),
		csvstore.NullText("city"),
		csvstore.NullText("country"),
		csvstore.NullText("industry"),
		csvstore.NullText("eventType"),
		csvstore.Column{Name: "estimatedAttendees", Type: csvstore.Int, Nullable: true},
		csvstore.Text("sourceUrl"),
		csvstore.NullText("sourcePlatform"),
		csvstore.NullText("logoUrl"),
		csvstore.Text("status"),
		csvstore.Timestamp("scrapedAt"),
	),
	Immutable: []string{"scrapedAt"},
	New: func(in types.EventInput, s types.Stamp) types.Event {
		status := in.Status
		if status == "" {
			status = types.EventDiscovered
		}
		return types.Event{
			Stamp:              s,
			Name:               in.Name,
			Description:        in.Description,
			Website:            in.Website,
			StartDate:          in.StartDate,
			EndDate:            in.EndDate,
			Location:           in.Location,
			City:               in.City,
			Country:            in.Country,
			Industry:           in.Industry,
			EventType:          in.EventType,
			EstimatedAttendees: in.EstimatedAttendees,
			SourceURL:          in.SourceURL,
			SourcePlatform:     in.SourcePlatform,
			LogoURL:            in.LogoURL,
			Status:             status,
			ScrapedAt:          s.CreatedAt,
		}
	},
	Stamp:    func(e *types.Event) *types.Stamp { return &e.Stamp },
	Validate: types.Event.Validate,
}

// Events stores trade shows and conferences in events.csv.
type Events struct {
	*csvstore.Table[types.Event, types.EventInput]
}

// NewEvents opens the events collection in dataDir.
func NewEvents(dataDir string, opts ...csvstore.Option) *Events {
	return &Events{csvstore.New(dataDir, eventSchema, opts...)}
}

// FindBySourceURL returns the first event harvested from sourceURL.
func (r *Events) FindBySourceURL(sourceURL string) (types.Event, error) {
	events, err := r.Filter(func(e types.Event) bool { return e.SourceURL == sourceURL })
	if err != nil {
		return types.Event{}, err
	}
	if len(events) == 0 {
		return types.Event{}, fmt.Errorf("event with source %s: %w", sourceURL, types.ErrNotFound)
	}
	return events[0], nil
}

// FindByCountry returns events whose country matches, ignoring case.
func (r *Events) FindByCountry(country string) ([]types.Event, error) {
	return r.Filter(func(e types.Event) bool {
		return e.Country != nil && strings.EqualFold(*e.Country, country)
	})
}

// FindUpcoming returns events with no start date or a start date on or
// after today.
func (r *Events) FindUpcoming() ([]types.Event, error) {
	today := r.Now().Format(types.DateLayout)
	return r.Filter(func(e types.Event) bool { return e.StartsOnOrAfter(today) })
}

// FindUpcomingByCountry narrows FindUpcoming to one country.
func (r *Events) FindUpcomingByCountry(country string) ([]types.Event, error) {
	today := r.Now().Format(types.DateLayout)
	return r.Filter(func(e types.Event) bool {
		return e.StartsOnOrAfter(today) && e.Country != nil && strings.EqualFold(*e.Country, country)
	})
}

// FindByDateRange returns events starting within [start, end], compared by
// calendar date. An empty bound is open. Events without a start date are
// always included.
func (r *Events) FindByDateRange(start, end string) ([]types.Event, error) {
	start = dayOf(start)
	end = dayOf(end)
	return r.Filter(func(e types.Event) bool {
		if e.StartDate == nil {
			return true
		}
		day := dayOf(*e.StartDate)
		if start != "" && day < start {
			return false
		}
		if end != "" && day > end {
			return false
		}
		return true
	})
}

// Statistics counts events by status and by country. Events without a
// country are counted under "Unknown".
func (r *Events) Statistics() (types.EventStats, error) {
	events, err := r.FindAll()
	if err != nil {
		return types.EventStats{}, err
	}
	stats := types.EventStats{Total: len(events), ByCountry: map[string]int{}}
	for _, e := range events {
		switch e.Status {
		case types.EventDiscovered:
			stats.Discovered++
		case types.EventAnalyzed:
			stats.Analyzed++
		case types.EventContacted:
			stats.Contacted++
		case types.EventClosed:
			stats.Closed++
		}
		country := "Unknown"
		if e.Country != nil && *e.Country != "" {
			country = *e.Country
		}
		stats.ByCountry[country]++
	}
	return stats, nil
}

// dayOf reduces an ISO date or date-time to its calendar date. Values that
// do not start with a date are returned unchanged.
func dayOf(s string) string {
	if d, ok := types.CalendarDate(s); ok {
		return d
	}
	return s
}
