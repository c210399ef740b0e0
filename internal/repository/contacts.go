package repository

import (
	"github.com/mesh-intelligence/salesdesk/internal/csvstore"
	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

var contactSchema = csvstore.Schema[types.Contact, types.ContactInput]{
	Kind: types.ContactsTable,
	File: types.FileName(types.ContactsTable),
	Columns: csvstore.Stamped(
		csvstore.NullText("firstName"),
		csvstore.NullText("lastName"),
		csvstore.Text("fullName"),
		csvstore.NullText("email"),
		csvstore.NullText("phone"),
		csvstore.NullText("company"),
		csvstore.NullText("position"),
		csvstore.NullText("linkedinUrl"),
		csvstore.NullText("twitterUrl"),
		csvstore.Column{Name: "verified", Type: csvstore.Bool},
		csvstore.Text("status"),
		csvstore.NullText("source"),
		csvstore.NullText("eventId"),
	),
	New: func(in types.ContactInput, s types.Stamp) types.Contact {
		status := in.Status
		if status == "" {
			status = types.ContactNew
		}
		verified := false
		if in.Verified != nil {
			verified = *in.Verified
		}
		return types.Contact{
			Stamp:       s,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			FullName:    in.FullName,
			Email:       in.Email,
			Phone:       in.Phone,
			Company:     in.Company,
			Position:    in.Position,
			LinkedinURL: in.LinkedinURL,
			TwitterURL:  in.TwitterURL,
			Verified:    verified,
			Status:      status,
			Source:      in.Source,
			EventID:     in.EventID,
		}
	},
	Stamp:    func(c *types.Contact) *types.Stamp { return &c.Stamp },
	Validate: types.Contact.Validate,
}

// Contacts stores people reachable at events in contacts.csv.
type Contacts struct {
	*csvstore.Table[types.Contact, types.ContactInput]
}

// NewContacts opens the contacts collection in dataDir.
func NewContacts(dataDir string, opts ...csvstore.Option) *Contacts {
	return &Contacts{csvstore.New(dataDir, contactSchema, opts...)}
}

// FindByEvent returns the contacts attached to an event.
func (r *Contacts) FindByEvent(eventID string) ([]types.Contact, error) {
	return r.Filter(func(c types.Contact) bool {
		return c.EventID != nil && *c.EventID == eventID
	})
}

// Statistics counts contacts by verification and status.
func (r *Contacts) Statistics() (types.ContactStats, error) {
	contacts, err := r.FindAll()
	if err != nil {
		return types.ContactStats{}, err
	}
	stats := types.ContactStats{Total: len(contacts), ByStatus: map[types.ContactStatus]int{}}
	for _, c := range contacts {
		if c.Verified {
			stats.Verified++
		}
		stats.ByStatus[c.Status]++
	}
	stats.Contacted = stats.ByStatus[types.ContactContacted]
	stats.Responded = stats.ByStatus[types.ContactResponded]
	stats.Qualified = stats.ByStatus[types.ContactQualified]
	return stats, nil
}
