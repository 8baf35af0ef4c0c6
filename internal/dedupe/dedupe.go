package dedupe

import "sync"

// Reason explains why a row was kept or dropped
type Reason string

const (
	Accepted                  Reason = "accepted"
	BlockListed               Reason = "block_listed"
	DuplicateInCategory       Reason = "duplicate_in_category"
	DuplicateAcrossCategories Reason = "duplicate_across_categories"
)

// Decision is the outcome of ShouldKeep
type Decision struct {
	Keep   bool
	Reason Reason
}

// Deduplicator decides which ISBNs make it into a category
type Deduplicator struct {
	blockList  map[string]map[string]bool
	duplicates map[string]map[string]bool
}

// New creates a Deduplicator from the per-category block-list and the
// ISBN -> categories duplicates map. Both maps are read, never modified.
func New(blockList, duplicates map[string]map[string]bool) *Deduplicator {
	return &Deduplicator{
		blockList:  blockList,
		duplicates: duplicates,
	}
}

// ShouldKeep evaluates the rules in order: block-list, duplicate within the
// category, duplicate across categories. An accepted ISBN is added to seen.
func (d *Deduplicator) ShouldKeep(isbn, category string, seen *Seen) Decision {
	if d.blockList[category][isbn] {
		return Decision{Reason: BlockListed}
	}

	if seen.Contains(isbn) {
		return Decision{Reason: DuplicateInCategory}
	}

	if d.duplicates[isbn][category] {
		return Decision{Reason: DuplicateAcrossCategories}
	}

	if !seen.Claim(isbn) {
		// lost a race against a concurrent caller for the same ISBN
		return Decision{Reason: DuplicateInCategory}
	}

	return Decision{Keep: true, Reason: Accepted}
}

// Seen is the set of ISBNs already accepted for one category
type Seen struct {
	mu    sync.Mutex
	isbns map[string]struct{}
}

// NewSeen creates an empty set
func NewSeen() *Seen {
	return &Seen{isbns: make(map[string]struct{})}
}

// Contains reports whether isbn was already accepted
func (s *Seen) Contains(isbn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.isbns[isbn]
	return ok
}

// Claim adds isbn and reports whether it was absent before
func (s *Seen) Claim(isbn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.isbns[isbn]; ok {
		return false
	}
	s.isbns[isbn] = struct{}{}
	return true
}

// Len returns the number of accepted ISBNs
func (s *Seen) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.isbns)
}
