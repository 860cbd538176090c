package scraper

import (
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/logger"
)

// Detail-page selectors
const (
	selCharacteristics = "div.announcement-characteristics li"
	selCharKey         = "span.key-chars"
	selCharValue       = "span.value-chars"
	selPostedDate      = "span.date-meta"
)

// FetchFunc fetches one page. It is the scraper's only transport
// dependency, satisfied by helpers.FetchPage in production and by test
// doubles elsewhere.
type FetchFunc func(url string) (*helpers.Fetched, error)

// DetailEnricher visits a listing's own page and extracts the dynamic
// attribute table plus the authoritative publish timestamp.
type DetailEnricher struct {
	fetch    FetchFunc
	minDelay time.Duration
	maxDelay time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// NewDetailEnricher creates an enricher with the given politeness bounds.
func NewDetailEnricher(fetch FetchFunc, minDelay, maxDelay time.Duration) *DetailEnricher {
	return &DetailEnricher{
		fetch:    fetch,
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		log:      logger.ForEnricher(),
	}
}

// Enrich fetches listingURL and returns its attribute table as
// column-name -> value, plus the posted timestamp from the detail page
// (0 when the page does not carry a parseable one). Fetch and parse
// failures yield an empty map; the row simply stays unenriched for a later
// run. Every call path incurs one politeness delay so the request rate
// stays capped uniformly.
func (e *DetailEnricher) Enrich(listingURL string) (map[string]string, int64) {
	defer helpers.RandomDelay(e.minDelay, e.maxDelay)

	attrs := make(map[string]string)

	fetched, err := e.fetch(listingURL)
	if err != nil {
		e.log.Warn().Err(err).Str("url", listingURL).Msg("Detail fetch failed")
		return attrs, 0
	}
	if fetched.Status != http.StatusOK {
		e.log.Warn().Int("status", fetched.Status).Str("url", listingURL).Msg("Detail page returned non-200, parsing anyway")
	}

	doc, err := goquery.NewDocumentFromReader(fetched.Body)
	if err != nil {
		e.log.Warn().Err(err).Str("url", listingURL).Msg("Detail page parse failed")
		return attrs, 0
	}

	doc.Find(selCharacteristics).Each(func(_ int, s *goquery.Selection) {
		key := NormalizeAttributeKey(s.Find(selCharKey).First().Text())
		value := helpers.CleanText(s.Find(selCharValue).First().Text())
		if key == "" || value == "" {
			return
		}
		attrs[key] = value
	})

	return attrs, e.postedAt(doc, listingURL)
}

// postedAt extracts the detail page's own "Posted" timestamp, which
// supersedes the summary-page publish date when present.
func (e *DetailEnricher) postedAt(doc *goquery.Document, listingURL string) int64 {
	raw := helpers.CleanText(doc.Find(selPostedDate).First().Text())
	if raw == "" {
		return 0
	}
	raw = helpers.CleanText(strings.TrimPrefix(raw, "Posted:"))

	epoch, err := NormalizeDateText(raw, e.now())
	if err != nil {
		e.log.Debug().Err(err).Str("url", listingURL).Msg("Unparseable posted date on detail page")
		return 0
	}
	return epoch
}

// NormalizeAttributeKey turns a raw characteristics label into a stable
// column name: whitespace collapsed, trailing colon stripped, lowercased,
// spaces to hyphens ("Floor area:" -> "floor-area").
func NormalizeAttributeKey(raw string) string {
	key := helpers.CleanText(raw)
	key = strings.TrimSuffix(key, ":")
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, " ", "-")
}
