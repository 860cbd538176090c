package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/pkg/errors"
)

// Pagination selectors. The site serves two widget variants depending on
// page age and search type.
const (
	selDataPage    = "[data-page]"
	selPageAnchors = "ul.number-list a.page-number"
)

// DiscoverPages determines the URLs of result pages 2..N for a region whose
// first page doc was fetched from pageURL. Page 1 is handled by the caller.
// An empty slice means a single-page result set.
//
// Two widget variants are supported: a data-page attribute list, whose
// maximum value is the page count, and a visible anchor list, whose
// second-to-last anchor text is the last page number. For the anchor
// variant the URLs come from a geocoordinate template when the page embeds
// lat/lng/radius inputs, from the anchors' own hrefs otherwise.
func DiscoverPages(doc *goquery.Document, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, errors.NewParsing("", "invalid page URL "+pageURL, err)
	}

	if last := maxDataPage(doc); last >= 2 {
		return pagesByQueryParam(base, 2, last), nil
	}

	anchors := doc.Find(selPageAnchors)
	if anchors.Length() < 2 {
		return nil, nil
	}

	lastText := helpers.CleanText(anchors.Eq(anchors.Length() - 2).Text())
	last, err := strconv.Atoi(lastText)
	if err != nil || last < 2 {
		return nil, nil
	}

	if lat, lng, radius, ok := geoInputs(doc); ok {
		return pagesByGeoTemplate(base, 2, last, lat, lng, radius), nil
	}

	return pagesByAnchorHrefs(base, anchors, last), nil
}

// maxDataPage returns the largest data-page value on the page, 0 when the
// widget is absent. Gaps in the displayed numbers do not truncate the max.
func maxDataPage(doc *goquery.Document) int {
	max := 0
	doc.Find(selDataPage).Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr("data-page")
		if !ok {
			return
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > max {
			max = n
		}
	})
	return max
}

// geoInputs reads the inline lat/lng/radius input fields, when all three
// are present.
func geoInputs(doc *goquery.Document) (lat, lng, radius string, ok bool) {
	read := func(name string) string {
		v, _ := doc.Find(`input[name="` + name + `"]`).First().Attr("value")
		return strings.TrimSpace(v)
	}
	lat, lng, radius = read("lat"), read("lng"), read("radius")
	return lat, lng, radius, lat != "" && lng != "" && radius != ""
}

// pagesByQueryParam builds page URLs from the base URL with a page=N
// parameter; coordinate/radius parameters already embedded in the base
// survive untouched.
func pagesByQueryParam(base *url.URL, from, to int) []string {
	var pages []string
	for n := from; n <= to; n++ {
		u := *base
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		pages = append(pages, u.String())
	}
	return pages
}

// pagesByGeoTemplate builds page URLs carrying the coordinates read from
// the page's inline inputs.
func pagesByGeoTemplate(base *url.URL, from, to int, lat, lng, radius string) []string {
	var pages []string
	for n := from; n <= to; n++ {
		u := *base
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		q.Set("lat", lat)
		q.Set("lng", lng)
		q.Set("radius", radius)
		u.RawQuery = q.Encode()
		pages = append(pages, u.String())
	}
	return pages
}

// pagesByAnchorHrefs maps each visible page number to its anchor's own
// href. Numbers the widget does not display (collapsed ranges) fall back to
// the query-parameter form.
func pagesByAnchorHrefs(base *url.URL, anchors *goquery.Selection, last int) []string {
	hrefs := make(map[int]string)
	anchors.Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(helpers.CleanText(s.Text()))
		if err != nil {
			return
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		if resolved, err := base.Parse(strings.TrimSpace(href)); err == nil {
			hrefs[n] = resolved.String()
		}
	})

	var pages []string
	for n := 2; n <= last; n++ {
		if href, ok := hrefs[n]; ok {
			pages = append(pages, href)
			continue
		}
		pages = append(pages, pagesByQueryParam(base, n, n)...)
	}
	return pages
}
