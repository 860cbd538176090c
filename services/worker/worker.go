package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/config"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/logger"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/checkpoint"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/services/publisher"
)

// RegionScraper scrapes one region's paginated results.
type RegionScraper interface {
	ScrapeRegion(ctx context.Context, target config.RegionTarget, seen *scraper.SeenSet) ([]scraper.Listing, scraper.RegionStats)
}

// Enricher extracts a listing's detail-page attributes and authoritative
// posted timestamp.
type Enricher interface {
	Enrich(listingURL string) (map[string]string, int64)
}

// Worker orchestrates the crawl-and-enrich pipeline: per city it scrapes
// every configured region into one deduplicated batch, merges the batch
// onto the prior checkpoint, then enriches pending rows with periodic
// flushes. Strictly sequential by design.
type Worker struct {
	ctx      context.Context
	cfg      config.Config
	scraper  RegionScraper
	enricher Enricher
	pub      publisher.Publisher
	now      func() time.Time
	log      *logger.Logger
}

// NewWorker creates the crawl orchestrator.
func NewWorker(ctx context.Context, cfg config.Config, rs RegionScraper, enricher Enricher, pub publisher.Publisher) *Worker {
	return &Worker{
		ctx:      ctx,
		cfg:      cfg,
		scraper:  rs,
		enricher: enricher,
		pub:      pub,
		now:      time.Now,
		log:      logger.ForWorker(),
	}
}

// Start runs one crawl-and-enrich pass over every configured city. Page
// and listing failures are logged and swallowed; only cancellation cuts the
// pass short.
func (w *Worker) Start() error {
	start := w.now()

	for _, city := range w.cfg.Cities() {
		select {
		case <-w.ctx.Done():
			w.log.Warn().Msg("Crawl cancelled")
			return w.ctx.Err()
		default:
		}
		w.crawlCity(city)
	}

	if err := w.pub.TrimStreams(); err != nil {
		w.log.Error().Err(err).Msg("Stream trimming failed")
	}

	w.log.Info().Dur("elapsed", w.now().Sub(start)).Msg("Crawl pass finished")
	return nil
}

// crawlCity scrapes every region of one city into a single batch, persists
// the merge and runs the enrichment loop.
func (w *Worker) crawlCity(city string) {
	log := logger.ForCity(city)
	seen := scraper.NewSeenSet()

	var batch []scraper.Listing
	for _, target := range w.cfg.RegionsFor(city) {
		listings, _ := w.scraper.ScrapeRegion(w.ctx, target, seen)
		w.publishListings(city, listings, log)
		batch = append(batch, listings...)
	}
	log.Info().Int("listings", len(batch)).Msg("City scraped")

	store := checkpoint.NewStore(w.cfg.OutputDir, city, w.cfg.CheckpointEvery, w.now())
	if err := store.LoadPrevious(); err != nil {
		log.Error().Err(err).Msg("Failed to load prior checkpoint, starting fresh")
	}
	store.MergeBatch(batch)
	if err := store.Save(); err != nil {
		log.Error().Err(err).Msg("Initial persist failed, skipping enrichment for city")
		return
	}

	w.enrichCity(city, store, log)
}

// enrichCity visits the detail page of every row still missing the marker
// attribute, merging results into the table and flushing per the
// checkpoint interval.
func (w *Worker) enrichCity(city string, store *checkpoint.Store, log *logger.Logger) {
	table := store.Table()

	var pending []int
	for idx := range table.Rows {
		if table.NeedsEnrichment(idx) {
			pending = append(pending, idx)
		}
	}
	log.Info().Int("pending", len(pending)).Msg("Starting enrichment")

	enriched := 0
	for _, idx := range pending {
		select {
		case <-w.ctx.Done():
			log.Warn().Int("enriched", enriched).Msg("Enrichment cancelled, flushing")
			if err := store.Save(); err != nil {
				log.Error().Err(err).Msg("Flush on cancel failed")
			}
			return
		default:
		}

		attrs, postedAt := w.enricher.Enrich(table.Rows[idx][checkpoint.ColURL])
		table.MergeEnrichment(idx, attrs, postedAt)
		enriched++

		flushed, err := store.NoteEnriched()
		if err != nil {
			log.Error().Err(err).Msg("Periodic flush failed")
			continue
		}
		if flushed {
			log.Info().Msgf("Enriched %d of %d in %s", enriched, len(pending), city)
		}
	}

	if err := store.Save(); err != nil {
		log.Error().Err(err).Msg("Final persist failed")
		return
	}
	log.Info().
		Int("enriched", enriched).
		Str("file", store.Path()).
		Msg("City checkpoint complete")
}

// publishListings pushes freshly discovered listings to the stream so
// downstream consumers see them before enrichment finishes. Publish
// failures are logged and swallowed.
func (w *Worker) publishListings(city string, listings []scraper.Listing, log *logger.Logger) {
	for _, l := range listings {
		data, err := json.Marshal(l)
		if err != nil {
			log.Error().Err(err).Str("url", l.URL).Msg("Failed to marshal listing")
			continue
		}
		if err := w.pub.Publish(city, data); err != nil {
			log.Error().Err(err).Str("url", l.URL).Msg("Failed to publish listing")
		}
	}
}
