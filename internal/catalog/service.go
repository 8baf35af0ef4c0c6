package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/lehigh-university-libraries/booklist/internal/store"
	"golang.org/x/sync/singleflight"
)

// FetchError reports a failed lookup for one ISBN. It never aborts a batch.
type FetchError struct {
	ISBN string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.ISBN, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Stats counts cache hits and misses
type Stats struct {
	Hits   int64 `yaml:"hits" json:"hits"`
	Misses int64 `yaml:"misses" json:"misses"`
}

// Service resolves ISBNs to records, consulting the store before the remote catalog.
// It is the only writer of the store.
type Service struct {
	remote Lookuper
	store  store.Store
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewService creates a cache-backed catalog service
func NewService(remote Lookuper, s store.Store) *Service {
	return &Service{
		remote: remote,
		store:  s,
	}
}

// Fetch returns the record for isbn. Every error is a *FetchError.
func (s *Service) Fetch(ctx context.Context, isbn string) (*models.BibliographicRecord, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil, &FetchError{ISBN: isbn, Err: errors.New("empty isbn")}
	}

	if record, ok := s.fromStore(ctx, isbn); ok {
		s.hits.Add(1)
		return record, nil
	}

	ran := false
	v, err, shared := s.group.Do(isbn, func() (any, error) {
		ran = true
		// a concurrent caller may have filled the store while we waited
		if record, ok := s.fromStore(ctx, isbn); ok {
			s.hits.Add(1)
			return record, nil
		}

		s.misses.Add(1)
		return s.fetchRemote(ctx, isbn)
	})
	if err != nil {
		return nil, &FetchError{ISBN: isbn, Err: err}
	}
	if shared && !ran {
		// waited on another caller's lookup
		s.hits.Add(1)
	}

	record := *v.(*models.BibliographicRecord)
	return &record, nil
}

// Stats returns the hit and miss counters
func (s *Service) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

func (s *Service) fromStore(ctx context.Context, isbn string) (*models.BibliographicRecord, bool) {
	payload, ok, err := s.store.Get(ctx, isbn)
	if err != nil {
		slog.Warn("Failed to read cache entry", "isbn", isbn, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	record, err := decode(isbn, payload)
	if err != nil {
		slog.Warn("Ignoring unusable cache entry", "isbn", isbn, "error", err)
		return nil, false
	}

	return &record, true
}

func (s *Service) fetchRemote(ctx context.Context, isbn string) (*models.BibliographicRecord, error) {
	slog.Debug("Fetching from catalog", "isbn", isbn)

	payload, err := s.remote.Lookup(ctx, isbn)
	if err != nil {
		return nil, err
	}

	record, err := decode(isbn, payload)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, isbn, payload); err != nil {
		// the record is still usable for this run
		slog.Warn("Failed to cache catalog payload", "isbn", isbn, "error", err)
	}

	return &record, nil
}

func decode(isbn string, payload []byte) (models.BibliographicRecord, error) {
	product, err := DecodeProduct(payload)
	if err != nil {
		return models.BibliographicRecord{}, err
	}
	return Normalize(isbn, product)
}
