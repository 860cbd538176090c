package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	assert.NoError(t, err)
	return doc
}

func TestDiscoverPagesDataPageWidget(t *testing.T) {
	// Displayed numbers have a gap; the max still wins
	doc := docFromHTML(t, `<html><body>
		<div class="paging">
			<a data-page="1">1</a>
			<a data-page="2">2</a>
			<a data-page="3">3</a>
			<a data-page="5">5</a>
		</div>
	</body></html>`)

	pageURL := "https://www.bazaraki.com/real-estate-to-rent/apartments-flats/?lat=34.697&lng=33.015&radius=15000"
	pages, err := DiscoverPages(doc, pageURL)
	assert.NoError(t, err)
	assert.Len(t, pages, 4)

	for i, page := range pages {
		assert.Contains(t, page, fmt.Sprintf("page=%d", i+2))
		// Coordinates embedded in the base URL survive
		assert.Contains(t, page, "lat=34.697")
		assert.Contains(t, page, "radius=15000")
	}
}

func TestDiscoverPagesAnchorListWithGeoInputs(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<input name="lat" value="34.697">
		<input name="lng" value="33.015">
		<input name="radius" value="15000">
		<ul class="number-list">
			<li><a class="page-number" href="?page=1">1</a></li>
			<li><a class="page-number" href="?page=2">2</a></li>
			<li><a class="page-number" href="?page=3">3</a></li>
			<li><a class="page-number next" href="?page=2">Next</a></li>
		</ul>
	</body></html>`)

	pages, err := DiscoverPages(doc, "https://www.bazaraki.com/real-estate-to-rent/apartments-flats/")
	assert.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Contains(t, pages[0], "page=2")
	assert.Contains(t, pages[0], "lat=34.697")
	assert.Contains(t, pages[1], "page=3")
}

func TestDiscoverPagesAnchorListByHref(t *testing.T) {
	doc := docFromHTML(t, `<html><body>
		<ul class="number-list">
			<li><a class="page-number" href="/rent/?page=1">1</a></li>
			<li><a class="page-number" href="/rent/?page=2">2</a></li>
			<li><a class="page-number" href="/rent/?page=3">3</a></li>
			<li><a class="page-number next" href="/rent/?page=2">Next</a></li>
		</ul>
	</body></html>`)

	pages, err := DiscoverPages(doc, "https://www.bazaraki.com/rent/")
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"https://www.bazaraki.com/rent/?page=2",
		"https://www.bazaraki.com/rent/?page=3",
	}, pages)
}

func TestDiscoverPagesSinglePage(t *testing.T) {
	doc := docFromHTML(t, `<html><body><ul class="listings"></ul></body></html>`)

	pages, err := DiscoverPages(doc, "https://www.bazaraki.com/rent/")
	assert.NoError(t, err)
	assert.Empty(t, pages)
}
