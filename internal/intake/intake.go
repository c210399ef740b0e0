// Package intake saves events handed off by the browser extraction
// interface. Items starting before the cutoff date are filtered out, and
// items whose source URL is already stored are skipped.
package intake

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// SourcePlatform is recorded on every event saved through intake.
const SourcePlatform = "browser"

// EventStore is the slice of the events repository intake writes to.
type EventStore interface {
	FindAll() ([]types.Event, error)
	CreateMany(ins []types.EventInput) ([]types.Event, error)
}

// Result summarizes one bulk save.
type Result struct {
	SavedCount     int           `json:"savedCount"`
	FilteredCount  int           `json:"filteredCount"`
	DuplicateCount int           `json:"duplicateCount"`
	Events         []types.Event `json:"events"`
	Message        string        `json:"message"`
}

// Service performs bulk saves.
type Service struct {
	events EventStore
	cutoff string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService returns a Service that keeps events starting on or after
// cutoff (YYYY-MM-DD; empty means types.DefaultIntakeCutoff).
func NewService(events EventStore, cutoff string, logger *slog.Logger) *Service {
	if cutoff == "" {
		cutoff = types.DefaultIntakeCutoff
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{events: events, cutoff: cutoff, logger: logger.With("component", "intake")}
}

// Cutoff returns the earliest start date accepted.
func (s *Service) Cutoff() string { return s.cutoff }

// Save filters items and stores the rest as DISCOVERED events in one
// atomic write. Items without a name or a parseable start date count as
// filtered.
func (s *Service) Save(items []types.ExtractedEvent) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.events.FindAll()
	if err != nil {
		return Result{}, err
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.SourceURL] = true
	}

	res := Result{Events: []types.Event{}}
	var inputs []types.EventInput
	for _, item := range items {
		start, ok := types.CalendarDate(strings.TrimSpace(item.StartDate))
		if !ok || start < s.cutoff || strings.TrimSpace(item.Name) == "" {
			res.FilteredCount++
			continue
		}
		src := SourceURL(item, start)
		if seen[src] {
			res.DuplicateCount++
			continue
		}
		seen[src] = true
		inputs = append(inputs, toInput(item, start, src))
	}

	if len(inputs) > 0 {
		created, err := s.events.CreateMany(inputs)
		if err != nil {
			return Result{}, err
		}
		res.Events = created
	}
	res.SavedCount = len(res.Events)
	res.Message = fmt.Sprintf("Saved %d events (filtered %d past events, skipped %d duplicates)",
		res.SavedCount, res.FilteredCount, res.DuplicateCount)
	s.logger.Info("bulk save", "saved", res.SavedCount, "filtered", res.FilteredCount, "duplicates", res.DuplicateCount)
	return res, nil
}

// SourceURL identifies a handed-off event: its website when present,
// otherwise a browser:// URL built from its name and start date.
func SourceURL(item types.ExtractedEvent, start string) string {
	if item.Website != nil && strings.TrimSpace(*item.Website) != "" {
		return strings.TrimSpace(*item.Website)
	}
	return "browser://" + slug(item.Name) + "-" + start
}

// toInput normalizes an accepted item so that a stray value cannot fail
// validation and take the rest of the batch down with it. An end date that
// does not parse is dropped.
func toInput(item types.ExtractedEvent, start, src string) types.EventInput {
	platform := SourcePlatform
	var website, end *string
	if item.Website != nil && strings.TrimSpace(*item.Website) != "" {
		website = types.Ptr(strings.TrimSpace(*item.Website))
	}
	if item.EndDate != nil {
		if d, ok := types.CalendarDate(strings.TrimSpace(*item.EndDate)); ok {
			end = &d
		}
	}
	return types.EventInput{
		Name:           strings.TrimSpace(item.Name),
		Description:    item.Description,
		Website:        website,
		StartDate:      &start,
		EndDate:        end,
		Location:       item.Location,
		City:           item.City,
		Country:        item.Country,
		SourceURL:      src,
		SourcePlatform: &platform,
	}
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
