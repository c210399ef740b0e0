// Package types defines the record kinds of the sales portal (events,
// contacts, opportunities, scraping jobs and scraped events), their enums
// and creation inputs, the Table interface shared by the CLI and HTTP
// layers, the runtime Config, and the standard errors.
package types
