package scraper

// Listing is one rental advertisement as extracted from a single
// search-result entry. Extra holds detail-page attributes keyed by
// normalized column name; it stays empty until the enricher visits the
// listing's own page.
type Listing struct {
	ID          string            `json:"id"`
	AdID        string            `json:"ad_id,omitempty"`
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	PublishDate int64             `json:"publish_date"`
	City        string            `json:"city"`
	District    string            `json:"district"`
	Price       float64           `json:"price"`
	Currency    string            `json:"currency"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// IdentityKey returns the value used to deduplicate the listing across
// pages and runs: the site-assigned ad id when present, the URL otherwise.
func (l *Listing) IdentityKey() string {
	if l.AdID != "" {
		return l.AdID
	}
	return l.URL
}

// SkipReason says why a result entry produced no listing. Entries are
// dropped rather than failing the page.
type SkipReason string

const (
	SkipNoTitle       SkipReason = "no_title"
	SkipNoLink        SkipReason = "no_link"
	SkipNoDescription SkipReason = "no_description"
	SkipNoDateLine    SkipReason = "no_date_line"
	SkipBadDate       SkipReason = "bad_date"
	SkipNoPrice       SkipReason = "no_price"
	SkipNoCurrency    SkipReason = "no_currency"
)

// PageStats aggregates fail-open outcomes for one result page.
type PageStats struct {
	Entries int
	Parsed  int
	Skipped map[SkipReason]int
}

func (ps *PageStats) addSkip(reason SkipReason) {
	if ps.Skipped == nil {
		ps.Skipped = make(map[SkipReason]int)
	}
	ps.Skipped[reason]++
}

// RegionStats aggregates outcomes for one region's full pagination sweep.
type RegionStats struct {
	Pages       int
	FailedPages int
	Entries     int
	Parsed      int
	Duplicates  int
	Skipped     map[SkipReason]int
}

func (rs *RegionStats) addPage(ps PageStats) {
	rs.Pages++
	rs.Entries += ps.Entries
	rs.Parsed += ps.Parsed
	for reason, n := range ps.Skipped {
		if rs.Skipped == nil {
			rs.Skipped = make(map[SkipReason]int)
		}
		rs.Skipped[reason] += n
	}
}
