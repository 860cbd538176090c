package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
)

func sampleListing(adID, url string) scraper.Listing {
	return scraper.Listing{
		ID:          "4814512_flat",
		AdID:        adID,
		URL:         url,
		Title:       "1-bedroom apartment",
		Description: "Cozy flat",
		PublishDate: 1718629800,
		City:        "Limassol",
		District:    "Agios Athanasios",
		Price:       850,
		Currency:    "€",
	}
}

func TestCrawlTableAppendListing(t *testing.T) {
	table := NewCrawlTable()
	table.AppendListing(sampleListing("4814512", "https://example.com/adv/4814512_flat/"))

	assert.Len(t, table.Rows, 1)
	row := table.Rows[0]
	assert.Equal(t, "850", row[ColPrice])
	assert.Equal(t, "1718629800", row[ColPublishDate])
	assert.Equal(t, "4814512", row.IdentityKey())

	// Core header order is fixed
	assert.Equal(t, ColID, table.Columns[0])
	assert.Equal(t, ColCurrency, table.Columns[len(coreColumns)-1])
}

func TestCrawlTableSchemaGrowsMonotonically(t *testing.T) {
	table := NewCrawlTable()
	table.AppendListing(sampleListing("1", "https://example.com/adv/1/"))
	table.AppendListing(sampleListing("2", "https://example.com/adv/2/"))

	before := len(table.Columns)
	table.MergeEnrichment(1, map[string]string{"area": "52 m²", "bedrooms": "1"}, 0)

	// New columns land at the end, in stable order
	assert.Equal(t, before+2, len(table.Columns))
	assert.Equal(t, []string{"area", "bedrooms"}, table.Columns[before:])

	// The earlier row reads empty for the new columns
	assert.Empty(t, table.Rows[0]["area"])
	assert.Equal(t, "52 m²", table.Rows[1]["area"])

	// Re-adding an existing column is a no-op
	table.MergeEnrichment(0, map[string]string{"area": "40 m²"}, 0)
	assert.Equal(t, before+2, len(table.Columns))
	assert.Equal(t, "40 m²", table.Rows[0]["area"])
}

func TestCrawlTableMergeEnrichmentPostedAt(t *testing.T) {
	table := NewCrawlTable()
	table.AppendListing(sampleListing("1", "https://example.com/adv/1/"))

	// The detail page's timestamp supersedes the summary one
	table.MergeEnrichment(0, nil, 1718700000)
	assert.Equal(t, "1718700000", table.Rows[0][ColPublishDate])

	// Zero means "no authoritative date found" and changes nothing
	table.MergeEnrichment(0, nil, 0)
	assert.Equal(t, "1718700000", table.Rows[0][ColPublishDate])
}

func TestCrawlTableNeedsEnrichment(t *testing.T) {
	table := NewCrawlTable()
	table.AppendListing(sampleListing("1", "https://example.com/adv/1/"))
	assert.True(t, table.NeedsEnrichment(0))

	table.MergeEnrichment(0, map[string]string{MarkerColumn: "52 m²"}, 0)
	assert.False(t, table.NeedsEnrichment(0))
}
