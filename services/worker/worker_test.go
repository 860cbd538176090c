package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/config"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/publisher"
)

// MockRegionScraper returns canned listings per region, honoring the seen set
type MockRegionScraper struct {
	byRegion map[string][]scraper.Listing
}

var _ RegionScraper = (*MockRegionScraper)(nil)

func (m *MockRegionScraper) ScrapeRegion(_ context.Context, target config.RegionTarget, seen *scraper.SeenSet) ([]scraper.Listing, scraper.RegionStats) {
	var out []scraper.Listing
	var stats scraper.RegionStats
	for _, l := range m.byRegion[target.Region] {
		if !seen.IsNew(l.IdentityKey()) {
			stats.Duplicates++
			continue
		}
		out = append(out, l)
	}
	return out, stats
}

// MockEnricher records the URLs it was asked for
type MockEnricher struct {
	attrs map[string]string
	urls  []string
}

var _ Enricher = (*MockEnricher)(nil)

func (m *MockEnricher) Enrich(listingURL string) (map[string]string, int64) {
	m.urls = append(m.urls, listingURL)
	return m.attrs, 0
}

// MockPublisher collects published messages per key
type MockPublisher struct {
	messages map[string][][]byte
	trimmed  bool
}

var _ publisher.Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{messages: make(map[string][][]byte)}
}

func (m *MockPublisher) Publish(key string, message []byte) error {
	cp := make([]byte, len(message))
	copy(cp, message)
	m.messages[key] = append(m.messages[key], cp)
	return nil
}

func (m *MockPublisher) TrimStreams() error {
	m.trimmed = true
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

func testListing(adID string) scraper.Listing {
	return scraper.Listing{
		ID:          adID + "_flat",
		AdID:        adID,
		URL:         fmt.Sprintf("https://example.com/adv/%s_flat/", adID),
		Title:       "Flat " + adID,
		Description: "d",
		PublishDate: 1718629800,
		City:        "Limassol",
		District:    "Zakaki",
		Price:       700,
		Currency:    "€",
	}
}

func testConfig(dir string) config.Config {
	return config.Config{
		BaseURL: "https://example.com",
		Regions: []config.RegionTarget{
			{City: "Limassol", Region: "main", URL: "https://example.com/r1"},
			{City: "Limassol", Region: "germasogeia", URL: "https://example.com/r2"},
		},
		CheckpointEvery: 2,
		OutputDir:       dir,
	}
}

func TestWorkerCrawlAndEnrich(t *testing.T) {
	dir := t.TempDir()

	// Region overlap: listing 2 appears in both regions
	rs := &MockRegionScraper{byRegion: map[string][]scraper.Listing{
		"main":        {testListing("1"), testListing("2")},
		"germasogeia": {testListing("2"), testListing("3")},
	}}
	enricher := &MockEnricher{attrs: map[string]string{"area": "52 m²", "bedrooms": "1"}}
	pub := NewMockPublisher()

	w := NewWorker(context.Background(), testConfig(dir), rs, enricher, pub)
	assert.NoError(t, w.Start())

	// Overlapping listing is deduplicated across regions
	assert.Len(t, pub.messages["Limassol"], 3)
	assert.True(t, pub.trimmed)
	assert.Len(t, enricher.urls, 3)

	// The checkpoint file carries all three rows, enriched
	matches, err := filepath.Glob(filepath.Join(dir, "limassol_*.csv"))
	assert.NoError(t, err)
	assert.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	assert.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Contains(t, records[0], "area")
	assert.Contains(t, records[0], "bedrooms")
}

func TestWorkerSkipsEnrichedRowsOnRerun(t *testing.T) {
	dir := t.TempDir()

	rs := &MockRegionScraper{byRegion: map[string][]scraper.Listing{
		"main": {testListing("1"), testListing("2")},
	}}
	cfg := testConfig(dir)
	cfg.Regions = cfg.Regions[:1]

	enricher := &MockEnricher{attrs: map[string]string{"area": "52 m²"}}
	w := NewWorker(context.Background(), cfg, rs, enricher, NewMockPublisher())
	assert.NoError(t, w.Start())
	assert.Len(t, enricher.urls, 2)

	// Second run against the same source: nothing is appended and nothing
	// needs re-enrichment
	time.Sleep(1100 * time.Millisecond) // distinct run timestamp
	enricher2 := &MockEnricher{attrs: map[string]string{"area": "52 m²"}}
	w2 := NewWorker(context.Background(), cfg, rs, enricher2, NewMockPublisher())
	assert.NoError(t, w2.Start())
	assert.Empty(t, enricher2.urls)

	matches, err := filepath.Glob(filepath.Join(dir, "limassol_*.csv"))
	assert.NoError(t, err)
	assert.Len(t, matches, 2)

	f, err := os.Open(matches[1])
	assert.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestWorkerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs := &MockRegionScraper{byRegion: map[string][]scraper.Listing{}}
	w := NewWorker(ctx, testConfig(t.TempDir()), rs, &MockEnricher{}, NewMockPublisher())
	assert.Error(t, w.Start())
}
