package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/config"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/helpers"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/logger"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/cache"
)

// RegionScraper walks one region's paginated search results and extracts
// every listing not yet seen this run. Strictly sequential: one fetch in
// flight, a politeness delay before each.
type RegionScraper struct {
	parser    *ListingParser
	fetch     FetchFunc
	cacheSvc  cache.CacheService
	minDelay  time.Duration
	maxDelay  time.Duration
	blockTime time.Duration
	log       *logger.Logger
}

// NewRegionScraper wires a region scraper. cacheSvc may be nil; it only
// backs the cool-down after the site throttles us.
func NewRegionScraper(parser *ListingParser, fetch FetchFunc, cacheSvc cache.CacheService, minDelay, maxDelay, blockTime time.Duration) *RegionScraper {
	return &RegionScraper{
		parser:    parser,
		fetch:     fetch,
		cacheSvc:  cacheSvc,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		blockTime: blockTime,
		log:       logger.ForScraper(),
	}
}

// ScrapeRegion fetches the region's first page, discovers the remaining
// page URLs and parses them all, returning only listings whose identity is
// new to seen. Failed pages are counted and skipped, never fatal.
func (s *RegionScraper) ScrapeRegion(ctx context.Context, target config.RegionTarget, seen *SeenSet) ([]Listing, RegionStats) {
	var stats RegionStats
	log := s.log.WithFields(logger.Fields{"city": target.City, "region": target.Region})

	if s.coolingDown(target) {
		log.Warn().Msg("Region is cooling down after rate limiting, skipping")
		return nil, stats
	}

	doc, err := s.fetchDoc(target.URL, log)
	if err != nil {
		s.noteFetchFailure(target, err, log)
		stats.FailedPages++
		return nil, stats
	}

	var collected []Listing
	collected = s.collectNew(collected, doc, seen, &stats)

	pages, err := DiscoverPages(doc, target.URL)
	if err != nil {
		log.Error().Err(err).Msg("Pagination discovery failed, scraping first page only")
	}
	log.Debug().Int("extra_pages", len(pages)).Msg("Pagination discovered")

	for _, pageURL := range pages {
		select {
		case <-ctx.Done():
			log.Warn().Msg("Crawl cancelled mid-region")
			return collected, stats
		default:
		}

		doc, err := s.fetchDoc(pageURL, log)
		if err != nil {
			stats.FailedPages++
			s.noteFetchFailure(target, err, log)
			if errors.Is(err, helpers.ErrRateLimited) {
				// The rest of this region is pointless until the block expires
				break
			}
			continue
		}
		collected = s.collectNew(collected, doc, seen, &stats)
	}

	log.Info().
		Int("pages", stats.Pages).
		Int("failed_pages", stats.FailedPages).
		Int("entries", stats.Entries).
		Int("parsed", stats.Parsed).
		Int("duplicates", stats.Duplicates).
		Interface("skipped", stats.Skipped).
		Msg("Region scraped")

	return collected, stats
}

// fetchDoc applies the politeness delay, fetches one page and parses it.
// Non-200 statuses are logged and the body parsed anyway; an empty or
// partial page then simply yields zero listings.
func (s *RegionScraper) fetchDoc(pageURL string, log *logger.Logger) (*goquery.Document, error) {
	helpers.RandomDelay(s.minDelay, s.maxDelay)

	fetched, err := s.fetch(pageURL)
	if err != nil {
		return nil, err
	}
	if fetched.Status != http.StatusOK {
		log.Warn().Int("status", fetched.Status).Str("url", pageURL).Msg("Non-200 result page, parsing anyway")
	}

	doc, err := goquery.NewDocumentFromReader(fetched.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// collectNew parses one page and appends the listings whose identity has
// not been seen this run.
func (s *RegionScraper) collectNew(collected []Listing, doc *goquery.Document, seen *SeenSet, stats *RegionStats) []Listing {
	listings, ps := s.parser.ParsePage(doc)
	stats.addPage(ps)

	for _, l := range listings {
		if !seen.IsNew(l.IdentityKey()) {
			stats.Duplicates++
			continue
		}
		collected = append(collected, l)
	}
	return collected
}

// coolingDown reports whether the region was recently rate limited.
func (s *RegionScraper) coolingDown(target config.RegionTarget) bool {
	if s.cacheSvc == nil {
		return false
	}
	_, err := s.cacheSvc.Get(rateLimitKey(target))
	return err == nil
}

// noteFetchFailure logs a failed page fetch and, on throttling, starts the
// region's cool-down window.
func (s *RegionScraper) noteFetchFailure(target config.RegionTarget, err error, log *logger.Logger) {
	if errors.Is(err, helpers.ErrRateLimited) {
		log.Warn().Err(err).Dur("block", s.blockTime).Msg("Rate limited, blocking region")
		if s.cacheSvc != nil {
			key := rateLimitKey(target)
			if setErr := s.cacheSvc.Set(key, []byte(fmt.Sprintf("%d", s.blockTime/time.Second)), s.blockTime); setErr != nil {
				log.Warn().Err(setErr).Str("key", key).Msg("Failed to set cool-down key")
			}
		}
		return
	}
	log.Error().Err(err).Msg("Result page fetch failed, treating as empty")
}

func rateLimitKey(target config.RegionTarget) string {
	return strings.ToLower(target.City) + "_" + strings.ToLower(target.Region) + "_rate_limited"
}
