package types

// ContactStatus is the outreach state of a contact.
type ContactStatus string

// Contact statuses.
const (
	ContactNew          ContactStatus = "NEW"
	ContactVerified     ContactStatus = "VERIFIED"
	ContactContacted    ContactStatus = "CONTACTED"
	ContactResponded    ContactStatus = "RESPONDED"
	ContactQualified    ContactStatus = "QUALIFIED"
	ContactUnresponsive ContactStatus = "UNRESPONSIVE"
)

var validContactStatuses = map[ContactStatus]bool{
	ContactNew:          true,
	ContactVerified:     true,
	ContactContacted:    true,
	ContactResponded:    true,
	ContactQualified:    true,
	ContactUnresponsive: true,
}

// Valid reports whether s is a recognized contact status.
func (s ContactStatus) Valid() bool { return validContactStatuses[s] }

// Contact is a person reachable at an event's organizer or exhibitor.
// EventID is a weak reference; the store never checks it.
type Contact struct {
	Stamp
	FirstName   *string       `json:"firstName"`
	LastName    *string       `json:"lastName"`
	FullName    string        `json:"fullName"`
	Email       *string       `json:"email"`
	Phone       *string       `json:"phone"`
	Company     *string       `json:"company"`
	Position    *string       `json:"position"`
	LinkedinURL *string       `json:"linkedinUrl"`
	TwitterURL  *string       `json:"twitterUrl"`
	Verified    bool          `json:"verified"`
	Status      ContactStatus `json:"status"`
	Source      *string       `json:"source"`
	EventID     *string       `json:"eventId"`
}

// ContactInput is the creation input for a Contact. Verified defaults to
// false and Status to NEW.
type ContactInput struct {
	FirstName   *string       `json:"firstName"`
	LastName    *string       `json:"lastName"`
	FullName    string        `json:"fullName"`
	Email       *string       `json:"email"`
	Phone       *string       `json:"phone"`
	Company     *string       `json:"company"`
	Position    *string       `json:"position"`
	LinkedinURL *string       `json:"linkedinUrl"`
	TwitterURL  *string       `json:"twitterUrl"`
	Verified    *bool         `json:"verified,omitempty"`
	Status      ContactStatus `json:"status,omitempty"`
	Source      *string       `json:"source"`
	EventID     *string       `json:"eventId"`
}

// Validate checks the contact against its schema.
func (c Contact) Validate() error {
	if err := c.Stamp.Validate(ContactsTable); err != nil {
		return err
	}
	if err := requireText(ContactsTable, "fullName", c.FullName); err != nil {
		return err
	}
	if !c.Status.Valid() {
		return Invalid(ContactsTable, "status", "unknown value "+string(c.Status))
	}
	return nil
}

// ContactStats aggregates contacts by verification and status.
type ContactStats struct {
	Total     int                   `json:"total"`
	Verified  int                   `json:"verified"`
	Contacted int                   `json:"contacted"`
	Responded int                   `json:"responded"`
	Qualified int                   `json:"qualified"`
	ByStatus  map[ContactStatus]int `json:"byStatus"`
}
