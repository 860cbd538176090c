package scraper

// SeenSet tracks listing identities observed during one crawl pass.
// Paginated results reshuffle near page boundaries, so the same listing can
// appear on two adjacent pages; the set keeps each identity to one row per
// pass. Single-goroutine use only.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates an empty set scoped to one orchestrator run.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// IsNew reports whether key has not been observed before, marking it as
// seen on first observation.
func (s *SeenSet) IsNew(key string) bool {
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct identities observed so far.
func (s *SeenSet) Len() int {
	return len(s.seen)
}
