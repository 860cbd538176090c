package checkpoint

import (
	"sort"
	"strconv"

	"github.com/Dotcommando/bazaraki-limassol-real-estate-for-rent-scraping/internal/scraper"
)

// Core column names shared between the scraper's Listing record and the
// persisted table.
const (
	ColID          = "id"
	ColAdID        = "ad_id"
	ColURL         = "url"
	ColTitle       = "title"
	ColDescription = "description"
	ColPublishDate = "publish_date"
	ColCity        = "city"
	ColDistrict    = "district"
	ColPrice       = "price"
	ColCurrency    = "currency"
)

// MarkerColumn is the detail-page attribute whose absence means a row has
// not been enriched yet. Every apartment detail page carries an area row,
// so an empty cell is a reliable "still pending" signal.
const MarkerColumn = "area"

// coreColumns in persisted order.
var coreColumns = []string{
	ColID, ColAdID, ColURL, ColTitle, ColDescription,
	ColPublishDate, ColCity, ColDistrict, ColPrice, ColCurrency,
}

// Row is one listing as a column-name -> cell mapping. Cells missing from a
// row read as empty.
type Row map[string]string

// CrawlTable is the full persisted set of listings for one city. The
// column set is the union of everything ever produced, in first-seen order;
// it grows monotonically and never shrinks. Rows are never deleted.
type CrawlTable struct {
	Columns []string
	Rows    []Row

	colSet map[string]struct{}
}

// NewCrawlTable creates an empty table carrying the core columns.
func NewCrawlTable() *CrawlTable {
	t := &CrawlTable{colSet: make(map[string]struct{})}
	for _, col := range coreColumns {
		t.EnsureColumn(col)
	}
	return t
}

// EnsureColumn adds a column at the end of the ordering unless it already
// exists. Prior rows implicitly read as empty for the new column.
func (t *CrawlTable) EnsureColumn(name string) {
	if t.colSet == nil {
		t.colSet = make(map[string]struct{})
	}
	if _, ok := t.colSet[name]; ok {
		return
	}
	t.colSet[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

// Append adds one row, registering its columns. colOrder fixes the ordering
// of any previously unseen columns; map iteration alone would make the
// header nondeterministic.
func (t *CrawlTable) Append(r Row, colOrder []string) {
	for _, col := range colOrder {
		t.EnsureColumn(col)
	}
	t.Rows = append(t.Rows, r)
}

// AppendListing converts a scraped listing to a row and appends it.
func (t *CrawlTable) AppendListing(l scraper.Listing) {
	row := Row{
		ColID:          l.ID,
		ColAdID:        l.AdID,
		ColURL:         l.URL,
		ColTitle:       l.Title,
		ColDescription: l.Description,
		ColPublishDate: strconv.FormatInt(l.PublishDate, 10),
		ColCity:        l.City,
		ColDistrict:    l.District,
		ColPrice:       strconv.FormatFloat(l.Price, 'f', -1, 64),
		ColCurrency:    l.Currency,
	}
	extraCols := sortedKeys(l.Extra)
	for _, k := range extraCols {
		row[k] = l.Extra[k]
	}
	t.Append(row, extraCols)
}

// MergeEnrichment merges a detail-page attribute map into the row at idx.
// New attribute keys become new columns (alphabetical within one result),
// backfilled empty for every other row. A positive postedAt overwrites the
// row's publish date, the detail page being the authoritative source.
func (t *CrawlTable) MergeEnrichment(idx int, attrs map[string]string, postedAt int64) {
	row := t.Rows[idx]
	for _, k := range sortedKeys(attrs) {
		t.EnsureColumn(k)
		row[k] = attrs[k]
	}
	if postedAt > 0 {
		row[ColPublishDate] = strconv.FormatInt(postedAt, 10)
	}
}

// NeedsEnrichment reports whether the row at idx still lacks detail-page
// attributes, judged by the marker column.
func (t *CrawlTable) NeedsEnrichment(idx int) bool {
	return t.Rows[idx][MarkerColumn] == ""
}

// IdentityKey returns the row's dedup key: ad id when present, URL
// otherwise. Mirrors Listing.IdentityKey.
func (r Row) IdentityKey() string {
	if r[ColAdID] != "" {
		return r[ColAdID]
	}
	return r[ColURL]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
