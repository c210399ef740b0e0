package types

// Standard record kind names. Each kind owns one CSV file in the data
// directory.
const (
	EventsTable        = "events"
	ContactsTable      = "contacts"
	OpportunitiesTable = "opportunities"
	ScrapingJobsTable  = "scraping-jobs"
	ScrapedEventsTable = "scraped-events"
)

// StandardTableNames lists all record kinds for enumeration.
var StandardTableNames = []string{
	EventsTable,
	ContactsTable,
	OpportunitiesTable,
	ScrapingJobsTable,
	ScrapedEventsTable,
}

// FileName returns the backing CSV file name for a record kind.
func FileName(table string) string {
	return table + ".csv"
}
