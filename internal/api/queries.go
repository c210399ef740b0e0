package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mesh-intelligence/salesdesk/internal/repository"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("query %s=%q is not a boolean: %w", name, v, types.ErrInvalidData)
	}
	return b, nil
}

// intParam parses an optional integer query parameter, returning def when
// absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query %s=%q is not an integer: %w", name, v, types.ErrInvalidData)
	}
	return n, nil
}

// requiredParam returns a query parameter that must be present.
func requiredParam(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", fmt.Errorf("query %s is required: %w", name, types.ErrInvalidData)
	}
	return v, nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleListEvents lists upcoming events, or every event with all=true.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	all, err := boolParam(r, "all")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var events []types.Event
	if all {
		events, err = s.Store.Events.FindAll()
	} else {
		events, err = s.Store.Events.FindUpcoming()
	}
	s.respond(w, r, nonNil(events), err)
}

func (s *Server) handleEventsByCountry(w http.ResponseWriter, r *http.Request) {
	country, err := requiredParam(r, "country")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := s.Store.Events.FindUpcomingByCountry(country)
	s.respond(w, r, nonNil(events), err)
}

func (s *Server) handleEventsByDateRange(w http.ResponseWriter, r *http.Request) {
	includeAll, err := boolParam(r, "includeAll")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	for _, name := range []string{"start", "end"} {
		if v := q.Get(name); v != "" {
			if _, ok := types.CalendarDate(v); !ok {
				s.writeError(w, r, fmt.Errorf("query %s=%q is not a date: %w", name, v, types.ErrInvalidData))
				return
			}
		}
	}
	var events []types.Event
	if includeAll {
		events, err = s.Store.Events.FindAll()
	} else {
		events, err = s.Store.Events.FindByDateRange(q.Get("start"), q.Get("end"))
	}
	s.respond(w, r, nonNil(events), err)
}

func (s *Server) handleEventBySourceURL(w http.ResponseWriter, r *http.Request) {
	src, err := requiredParam(r, "sourceUrl")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	event, err := s.Store.Events.FindBySourceURL(src)
	s.respond(w, r, event, err)
}

func (s *Server) handleContactsByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := requiredParam(r, "eventId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	contacts, err := s.Store.Contacts.FindByEvent(eventID)
	s.respond(w, r, nonNil(contacts), err)
}

func (s *Server) handleOpportunitiesByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := requiredParam(r, "eventId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opps, err := s.Store.Opportunities.FindByEvent(eventID)
	s.respond(w, r, nonNil(opps), err)
}

func (s *Server) handleTopOpportunities(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", repository.DefaultTopLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opps, err := s.Store.Opportunities.TopByScore(limit)
	s.respond(w, r, nonNil(opps), err)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Dashboard.Stats(r.Context())
	s.respond(w, r, stats, err)
}
