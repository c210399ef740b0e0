package scraping

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// Scraper extracts candidate events from a listing page.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, url string) ([]types.ScrapedEventInput, error)
}

// Match decides whether a scraper can process a URL.
type Match func(url string) bool

// HostMatch matches URLs containing any of the given host names.
func HostMatch(hosts ...string) Match {
	return func(url string) bool {
		for _, h := range hosts {
			if strings.Contains(url, h) {
				return true
			}
		}
		return false
	}
}

type registration struct {
	match   Match
	scraper Scraper
}

// Registry is an ordered list of scrapers. The first registration whose
// Match accepts a URL handles it.
type Registry struct {
	entries []registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a scraper. Earlier registrations take precedence.
func (r *Registry) Register(match Match, s Scraper) *Registry {
	r.entries = append(r.entries, registration{match: match, scraper: s})
	return r
}

// Find returns the first scraper accepting url.
func (r *Registry) Find(url string) (Scraper, bool) {
	for _, e := range r.entries {
		if e.match(url) {
			return e.scraper, true
		}
	}
	return nil, false
}

// Len reports how many scrapers are registered.
func (r *Registry) Len() int { return len(r.entries) }
