package scraper

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/pkg/errors"
)

// CSS selectors for a search-result page
const (
	selEntry       = "li.announcement-container"
	selTitle       = "a.announcement-block__title"
	selDescription = "div.announcement-block__description"
	selDateLine    = "div.announcement-block__date"
	selPriceMeta   = "meta[itemprop='price']"
	selCurrency    = "div.announcement-block__price b"
)

// ListingParser extracts structured listing records from search-result
// entries. Entries missing a required field are skipped, never fatal.
type ListingParser struct {
	base *url.URL
	now  func() time.Time
}

// NewListingParser creates a parser resolving relative listing links
// against baseURL.
func NewListingParser(baseURL string) (*ListingParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewConfiguration("invalid base URL", err)
	}
	return &ListingParser{base: base, now: time.Now}, nil
}

// ParsePage extracts every listing from one result page.
func (p *ListingParser) ParsePage(doc *goquery.Document) ([]Listing, PageStats) {
	var listings []Listing
	var stats PageStats

	doc.Find(selEntry).Each(func(_ int, s *goquery.Selection) {
		stats.Entries++
		listing, skip := p.ParseEntry(s)
		if listing == nil {
			stats.addSkip(skip)
			return
		}
		stats.Parsed++
		listings = append(listings, *listing)
	})

	return listings, stats
}

// ParseEntry extracts one listing from a single result-entry fragment. A
// nil listing plus the reason is returned for entries that are missing a
// required field (older page variants render partial blocks).
func (p *ListingParser) ParseEntry(s *goquery.Selection) (*Listing, SkipReason) {
	titleSel := s.Find(selTitle).First()
	if titleSel.Length() == 0 {
		return nil, SkipNoTitle
	}
	title := helpers.CleanText(titleSel.Text())
	if title == "" {
		return nil, SkipNoTitle
	}

	href, ok := titleSel.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return nil, SkipNoLink
	}
	link, err := p.base.Parse(href)
	if err != nil {
		return nil, SkipNoLink
	}

	descSel := s.Find(selDescription).First()
	if descSel.Length() == 0 {
		return nil, SkipNoDescription
	}
	description := helpers.CleanText(descSel.Text())

	dateLine := helpers.CleanText(s.Find(selDateLine).First().Text())
	if dateLine == "" {
		return nil, SkipNoDateLine
	}
	publishDate, city, district, skip := p.parseDateLine(dateLine)
	if skip != "" {
		return nil, skip
	}

	priceText, ok := s.Find(selPriceMeta).First().Attr("content")
	if !ok {
		return nil, SkipNoPrice
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(priceText), 64)
	if err != nil || price < 0 {
		return nil, SkipNoPrice
	}

	currency := helpers.CleanText(s.Find(selCurrency).First().Text())
	if currency == "" {
		return nil, SkipNoCurrency
	}

	return &Listing{
		ID:          slugFromPath(link.Path),
		AdID:        strings.TrimSpace(s.AttrOr("data-id", "")),
		URL:         link.String(),
		Title:       title,
		Description: description,
		PublishDate: publishDate,
		City:        city,
		District:    district,
		Price:       price,
		Currency:    currency,
	}, ""
}

// parseDateLine splits the combined "<date>, <city>, <district>" metadata
// line from the right: the last comma segment is the district remainder,
// the second-to-last (when at least three segments exist) is the city. With
// no explicit city the district is taken as-is and city stays empty.
func (p *ListingParser) parseDateLine(line string) (epoch int64, city, district string, skip SkipReason) {
	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return 0, "", "", SkipNoDateLine
	}

	epoch, err := NormalizeDateText(parts[0], p.now())
	if err != nil {
		// Malformed date drops just this listing, the page goes on
		return 0, "", "", SkipBadDate
	}

	district = helpers.CleanText(parts[len(parts)-1])
	if len(parts) >= 3 {
		city = helpers.CleanText(parts[len(parts)-2])
		if city != "" {
			district = SplitDistrict(city, district)
		}
	}
	return epoch, city, district, ""
}

// slugFromPath derives the listing id from the URL slug, the path segment
// after "adv" ("/adv/4814512_1-bedroom-apartment/" -> "4814512_1-bedroom-apartment").
func slugFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if seg == "adv" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	if len(segments) > 0 {
		return segments[len(segments)-1]
	}
	return ""
}
