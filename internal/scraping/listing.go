package scraping

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"gorm.io/datatypes"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

const (
	maxPageBytes   = 10 << 20
	rawElementSize = 500
)

// SwissCongressHosts are the hosts the listing scraper is registered for.
var SwissCongressHosts = []string{"swiss-congress.ch", "swisscongress.ch"}

// ListingScraper extracts events from conference listing pages. Each
// listing item is an article or an element carrying one of the item
// classes; within it the first heading is the name, and date, location
// and description are picked up from conventionally named elements.
type ListingScraper struct {
	client    *http.Client
	cutoff    string
	source    string
	organizer string
	now       func() time.Time
	logger    *slog.Logger
}

// ListingOption configures a ListingScraper.
type ListingOption func(*ListingScraper)

// WithCutoff drops events starting before the given YYYY-MM-DD date.
func WithCutoff(day string) ListingOption {
	return func(l *ListingScraper) { l.cutoff = day }
}

// WithOrganizer sets the organizer recorded on every event.
func WithOrganizer(name string) ListingOption {
	return func(l *ListingScraper) { l.organizer = name }
}

// WithSource sets the source tag stored in rawData.
func WithSource(name string) ListingOption {
	return func(l *ListingScraper) { l.source = name }
}

// WithScraperLogger sets the logger.
func WithScraperLogger(logger *slog.Logger) ListingOption {
	return func(l *ListingScraper) { l.logger = logger }
}

// NewListingScraper returns a scraper using client, or http.DefaultClient
// when nil.
func NewListingScraper(client *http.Client, opts ...ListingOption) *ListingScraper {
	if client == nil {
		client = http.DefaultClient
	}
	l := &ListingScraper{
		client:    client,
		cutoff:    types.DefaultIntakeCutoff,
		source:    "swiss-congress",
		organizer: "Swiss Congress",
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name identifies the scraper in logs.
func (l *ListingScraper) Name() string { return "listing:" + l.source }

// Scrape fetches pageURL and returns the listed events on or after the
// cutoff. Events without a recognizable date are kept for manual review.
func (l *ListingScraper) Scrape(ctx context.Context, pageURL string) ([]types.ScrapedEventInput, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	scrapedAt := l.now().UTC().Format(time.RFC3339)
	var events []types.ScrapedEventInput
	for _, item := range listingItems(doc) {
		ev, ok := l.extract(item, base, scrapedAt)
		if !ok {
			continue
		}
		if ev.StartDate != nil && *ev.StartDate < l.cutoff {
			continue
		}
		events = append(events, ev)
	}
	l.logger.Info("listing scraped", "url", pageURL, "items", len(events))
	return events, nil
}

func (l *ListingScraper) extract(item *html.Node, base *url.URL, scrapedAt string) (types.ScrapedEventInput, bool) {
	nameNode := findFirst(item, func(n *html.Node) bool {
		return isTag(n, "h1", "h2", "h3") || hasClassLike(n, "title", "name")
	})
	name := textOf(nameNode)
	if name == "" {
		return types.ScrapedEventInput{}, false
	}

	ev := types.ScrapedEventInput{
		Name:      name,
		URL:       base.String(),
		Country:   types.DefaultCountry,
		Organizer: nonEmpty(l.organizer),
	}

	if a := findFirst(item, func(n *html.Node) bool { return isTag(n, "a") && attr(n, "href") != "" }); a != nil {
		if ref, err := base.Parse(attr(a, "href")); err == nil && ref.Host != "" {
			link := ref.String()
			ev.URL = link
			ev.Website = &link
		}
	}

	descNode := findFirst(item, func(n *html.Node) bool {
		return n != nameNode && (isTag(n, "p") || hasClassLike(n, "description", "summary", "content", "desc"))
	})
	ev.Description = nonEmpty(textOf(descNode))

	dateNode := findFirst(item, func(n *html.Node) bool {
		return isTag(n, "time") || attr(n, "datetime") != "" || hasClassLike(n, "date", "when")
	})
	ev.StartDate = parseListingDate(attr(dateNode, "datetime"), textOf(dateNode))

	locNode := findFirst(item, func(n *html.Node) bool { return hasClassLike(n, "location", "venue", "where") })
	ev.Location = nonEmpty(textOf(locNode))
	if ev.Location != nil {
		ev.City = guessCity(*ev.Location)
	}

	ev.RawData = datatypes.JSONMap{
		"source":      l.source,
		"scrapedAt":   scrapedAt,
		"originalUrl": base.String(),
		"element":     renderExcerpt(item, rawElementSize),
	}
	return ev, true
}

// itemClasses mark an element as one listing entry.
var itemClasses = map[string]bool{
	"event":           true,
	"event-item":      true,
	"conference-item": true,
	"card":            true,
}

// listingItems returns the outermost listing entries in document order.
func listingItems(doc *html.Node) []*html.Node {
	var items []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "article" || hasClass(n, itemClasses)) {
			items = append(items, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return items
}

func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func isTag(n *html.Node, tags ...string) bool {
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, classes map[string]bool) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if classes[c] {
			return true
		}
	}
	return false
}

// hasClassLike reports whether any class of n contains one of the words.
func hasClassLike(n *html.Node, words ...string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		for _, w := range words {
			if strings.Contains(c, w) {
				return true
			}
		}
	}
	return false
}

// textOf returns the whitespace-collapsed text content of n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

var (
	dayFirstDate = regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`)
	isoDate      = regexp.MustCompile(`\b(\d{4})[./-](\d{1,2})[./-](\d{1,2})\b`)
)

// parseListingDate prefers a datetime attribute and falls back to the
// first date in the text. Dotted dates are read day first, as written in
// Switzerland.
func parseListingDate(datetime, text string) *string {
	if d, ok := types.CalendarDate(strings.TrimSpace(datetime)); ok {
		return &d
	}
	var y, m, d string
	if g := isoDate.FindStringSubmatch(text); g != nil {
		y, m, d = g[1], g[2], g[3]
	} else if g := dayFirstDate.FindStringSubmatch(text); g != nil {
		d, m, y = g[1], g[2], g[3]
	} else {
		return nil
	}
	t, err := time.Parse("2006-1-2", y+"-"+m+"-"+d)
	if err != nil {
		return nil
	}
	s := t.Format(types.DateLayout)
	return &s
}

var swissCities = []struct {
	needles []string
	city    string
}{
	{[]string{"zurich", "zürich"}, "Zurich"},
	{[]string{"geneva", "genève", "geneve", "genf"}, "Geneva"},
	{[]string{"basel"}, "Basel"},
	{[]string{"bern"}, "Bern"},
	{[]string{"lausanne"}, "Lausanne"},
	{[]string{"lucerne", "luzern"}, "Lucerne"},
}

// guessCity maps a free-text location to a known Swiss city.
func guessCity(location string) *string {
	lower := strings.ToLower(location)
	for _, c := range swissCities {
		for _, n := range c.needles {
			if strings.Contains(lower, n) {
				city := c.city
				return &city
			}
		}
	}
	return nil
}

// renderExcerpt renders n as HTML, truncated to at most limit bytes on a
// rune boundary.
func renderExcerpt(n *html.Node, limit int) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	out := buf.Bytes()
	if len(out) <= limit {
		return string(out)
	}
	out = out[:limit]
	for len(out) > 0 && !utf8.Valid(out) {
		out = out[:len(out)-1]
	}
	return string(out)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
