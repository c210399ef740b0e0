package types

import "time"

// EventStatus is the position of an event in the sales workflow.
type EventStatus string

// Event statuses.
const (
	EventDiscovered EventStatus = "DISCOVERED"
	EventAnalyzed   EventStatus = "ANALYZED"
	EventContacted  EventStatus = "CONTACTED"
	EventClosed     EventStatus = "CLOSED"
)

var validEventStatuses = map[EventStatus]bool{
	EventDiscovered: true,
	EventAnalyzed:   true,
	EventContacted:  true,
	EventClosed:     true,
}

// Valid reports whether s is a recognized event status.
func (s EventStatus) Valid() bool { return validEventStatuses[s] }

// Event is a trade show, congress or conference tracked as a sales lead.
type Event struct {
	Stamp
	Name               string      `json:"name"`
	Description        *string     `json:"description"`
	Website            *string     `json:"website"`
	StartDate          *string     `json:"startDate"`
	EndDate            *string     `json:"endDate"`
	Location           *string     `json:"location"`
	City               *string     `json:"city"`
	Country            *string     `json:"country"`
	Industry           *string     `json:"industry"`
	EventType          *string     `json:"eventType"`
	EstimatedAttendees *int        `json:"estimatedAttendees"`
	SourceURL          string      `json:"sourceUrl"`
	SourcePlatform     *string     `json:"sourcePlatform"`
	LogoURL            *string     `json:"logoUrl"`
	Status             EventStatus `json:"status"`
	ScrapedAt          time.Time   `json:"scrapedAt"`
}

// EventInput is the creation input for an Event. Status is optional and
// defaults to DISCOVERED.
type EventInput struct {
	Name               string      `json:"name"`
	Description        *string     `json:"description"`
	Website            *string     `json:"website"`
	StartDate          *string     `json:"startDate"`
	EndDate            *string     `json:"endDate"`
	Location           *string     `json:"location"`
	City               *string     `json:"city"`
	Country            *string     `json:"country"`
	Industry           *string     `json:"industry"`
	EventType          *string     `json:"eventType"`
	EstimatedAttendees *int        `json:"estimatedAttendees"`
	SourceURL          string      `json:"sourceUrl"`
	SourcePlatform     *string     `json:"sourcePlatform"`
	LogoURL            *string     `json:"logoUrl"`
	Status             EventStatus `json:"status,omitempty"`
}

// Validate checks the event against its schema.
func (e Event) Validate() error {
	if err := e.Stamp.Validate(EventsTable); err != nil {
		return err
	}
	if err := requireText(EventsTable, "name", e.Name); err != nil {
		return err
	}
	if err := requireText(EventsTable, "sourceUrl", e.SourceURL); err != nil {
		return err
	}
	if !e.Status.Valid() {
		return Invalid(EventsTable, "status", "unknown value "+string(e.Status))
	}
	if e.EstimatedAttendees != nil && *e.EstimatedAttendees < 0 {
		return Invalid(EventsTable, "estimatedAttendees", "must not be negative")
	}
	if err := optionalDate(EventsTable, "startDate", e.StartDate); err != nil {
		return err
	}
	if err := optionalDate(EventsTable, "endDate", e.EndDate); err != nil {
		return err
	}
	if e.ScrapedAt.IsZero() {
		return Invalid(EventsTable, "scrapedAt", "must be set")
	}
	return nil
}

// StartsOnOrAfter reports whether the event has no start date or starts on
// or after the given calendar date (YYYY-MM-DD).
func (e Event) StartsOnOrAfter(day string) bool {
	if e.StartDate == nil {
		return true
	}
	start, ok := CalendarDate(*e.StartDate)
	if !ok {
		return true
	}
	return start >= day
}

// EventStats aggregates events by status and country.
type EventStats struct {
	Total      int            `json:"total"`
	Discovered int            `json:"discovered"`
	Analyzed   int            `json:"analyzed"`
	Contacted  int            `json:"contacted"`
	Closed     int            `json:"closed"`
	ByCountry  map[string]int `json:"byCountry"`
}

// ExtractedEvent is the shape the browser extraction hands to the bulk
// save operation.
type ExtractedEvent struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	Location    *string `json:"location,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	Website     *string `json:"website,omitempty"`
}
