package types

import (
	"net/url"
	"strings"
	"time"
)

// Stamp carries the identity and lifecycle timestamps shared by every
// record kind. The store assigns ID and CreatedAt once at creation and
// refreshes UpdatedAt on every successful mutation.
type Stamp struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the stamp was assigned.
func (s Stamp) Validate(kind string) error {
	if s.ID == "" {
		return Invalid(kind, "id", "must not be empty")
	}
	if s.CreatedAt.IsZero() {
		return Invalid(kind, "createdAt", "must be set")
	}
	if s.UpdatedAt.IsZero() {
		return Invalid(kind, "updatedAt", "must be set")
	}
	return nil
}

// DateLayout is the calendar-date layout used by start, end and
// follow-up dates.
const DateLayout = "2006-01-02"

// CalendarDate returns the YYYY-MM-DD prefix of an ISO date or date-time
// string. The second result is false when the prefix is not a valid date.
func CalendarDate(s string) (string, bool) {
	if len(s) < len(DateLayout) {
		return "", false
	}
	prefix := s[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, prefix); err != nil {
		return "", false
	}
	return prefix, true
}

// Ptr returns a pointer to v. Handy for populating nullable fields.
func Ptr[T any](v T) *T {
	return &v
}

func requireText(kind, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Invalid(kind, field, "must not be empty")
	}
	return nil
}

func optionalDate(kind, field string, v *string) error {
	if v == nil {
		return nil
	}
	if _, ok := CalendarDate(*v); !ok {
		return Invalid(kind, field, "must start with a YYYY-MM-DD date")
	}
	return nil
}

func requireURL(kind, field, v string) error {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Invalid(kind, field, "must be an absolute URL")
	}
	return nil
}
