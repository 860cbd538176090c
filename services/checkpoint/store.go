package checkpoint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/logger"
)

// runStampLayout keeps checkpoint filenames in chronological order under a
// plain lexicographic sort.
const runStampLayout = "20060102_150405"

// Store persists one city's CrawlTable as a CSV file under the output
// directory, path pattern <dir>/<city_lowercase>_<run_timestamp>.csv. Each
// run writes its own timestamped file; prior runs' files are never touched.
type Store struct {
	dir        string
	city       string
	runStamp   string
	flushEvery int

	table      *CrawlTable
	sinceFlush int
	log        *logger.Logger
}

// NewStore creates a checkpoint store for one city. flushEvery is the
// number of enriched rows between periodic persists.
func NewStore(dir, city string, flushEvery int, runTime time.Time) *Store {
	return &Store{
		dir:        dir,
		city:       city,
		runStamp:   runTime.Format(runStampLayout),
		flushEvery: flushEvery,
		table:      NewCrawlTable(),
		log:        logger.ForCheckpoint().WithField("city", city),
	}
}

// Table exposes the in-memory table for the enrichment loop.
func (s *Store) Table() *CrawlTable {
	return s.table
}

// Path returns this run's checkpoint file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, strings.ToLower(s.city)+"_"+s.runStamp+".csv")
}

// LoadPrevious loads the most recent prior checkpoint for the city, if any,
// as the base the fresh batch merges onto. No prior file is not an error.
func (s *Store) LoadPrevious() error {
	pattern := filepath.Join(s.dir, strings.ToLower(s.city)+"_*.csv")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		s.log.Debug().Msg("No prior checkpoint, starting fresh")
		return nil
	}

	sort.Strings(matches)
	latest := matches[len(matches)-1]

	f, err := os.Open(latest)
	if err != nil {
		return fmt.Errorf("open checkpoint %s: %w", latest, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read checkpoint %s: %w", latest, err)
	}
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	for _, rows := range records[1:] {
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rows) && rows[i] != "" {
				row[col] = rows[i]
			}
		}
		s.table.Append(row, header)
	}

	s.log.Info().
		Str("file", latest).
		Int("rows", len(s.table.Rows)).
		Msg("Loaded prior checkpoint")
	return nil
}

// MergeBatch merges freshly scraped listings onto the loaded table. Rows
// whose identity already exists in the table are dropped, keeping the prior
// row and whatever enrichment it carries; re-running against an unchanged
// source therefore reconciles instead of duplicating.
func (s *Store) MergeBatch(batch []scraper.Listing) int {
	existing := make(map[string]struct{}, len(s.table.Rows))
	for _, row := range s.table.Rows {
		existing[row.IdentityKey()] = struct{}{}
	}

	added := 0
	for _, l := range batch {
		if _, ok := existing[l.IdentityKey()]; ok {
			continue
		}
		existing[l.IdentityKey()] = struct{}{}
		s.table.AppendListing(l)
		added++
	}

	s.log.Info().
		Int("batch", len(batch)).
		Int("added", added).
		Int("total", len(s.table.Rows)).
		Msg("Merged fresh batch")
	return added
}

// Save persists the whole table to this run's checkpoint file. Cells a row
// lacks are written empty so every record matches the header.
func (s *Store) Save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(s.Path())
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(s.table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cells := make([]string, len(s.table.Columns))
	for _, row := range s.table.Rows {
		for i, col := range s.table.Columns {
			cells[i] = row[col]
		}
		if err := w.Write(cells); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	return nil
}

// NoteEnriched counts one successfully enriched row and persists when the
// flush interval is reached, so a crash loses at most flushEvery-1
// enrichments. Reports whether a flush happened.
func (s *Store) NoteEnriched() (bool, error) {
	s.sinceFlush++
	if s.sinceFlush < s.flushEvery {
		return false, nil
	}
	s.sinceFlush = 0
	return true, s.Save()
}
