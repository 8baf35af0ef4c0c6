// Package pipeline turns category source files into sorted category datasets.
//
// Each category moves through the same states: its source is read, every row
// is deduplicated in input order, accepted rows are looked up and derived
// (optionally in parallel), the results are sorted by author and finally
// written as JSON and CSV. A failed lookup only drops its row; a failed write
// only fails its category.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/lehigh-university-libraries/booklist/internal/dedupe"
	"github.com/lehigh-university-libraries/booklist/internal/derive"
	"github.com/lehigh-university-libraries/booklist/internal/failures"
	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/lehigh-university-libraries/booklist/internal/overrides"
	"github.com/lehigh-university-libraries/booklist/internal/report"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Fetcher resolves an ISBN to its catalog record
type Fetcher interface {
	Fetch(ctx context.Context, isbn string) (*models.BibliographicRecord, error)
}

// CoverDownloader stores the cover of an ISBN as <dir>/<slug>.jpg
type CoverDownloader interface {
	DownloadCover(ctx context.Context, isbn, coverURL, slug, dir string) error
}

// PersistenceError reports a failed write. It fails its category only.
type PersistenceError struct {
	Category string
	Path     string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist category %s to %s: %v", e.Category, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Runner holds everything one issue run needs
type Runner struct {
	Layout    issue.Layout
	Overrides *overrides.Config
	Catalog   Fetcher
	// Covers is used by Prefetch; nil skips cover downloads
	Covers   CoverDownloader
	Failures *failures.Log
	// Concurrency bounds parallel lookups within a category
	Concurrency int
	// Headings maps category names to their printed heading, for the report
	Headings map[string]string

	dedupe *dedupe.Deduplicator
}

// New creates a runner with an empty failure log and sequential lookups
func New(layout issue.Layout, ov *overrides.Config, catalog Fetcher) *Runner {
	if ov == nil {
		ov = overrides.Empty()
	}
	return &Runner{
		Layout:      layout,
		Overrides:   ov,
		Catalog:     catalog,
		Failures:    failures.New(),
		Concurrency: 1,
		dedupe:      dedupe.New(ov.BlockList, ov.Duplicates),
	}
}

func (r *Runner) deduplicator() *dedupe.Deduplicator {
	if r.dedupe == nil {
		r.dedupe = dedupe.New(r.Overrides.BlockList, r.Overrides.Duplicates)
	}
	return r.dedupe
}

func (r *Runner) limit() int {
	if r.Concurrency < 1 {
		return 1
	}
	return r.Concurrency
}

// Run processes categories one after another and writes the failure log
// once at the end. Errors of single categories do not stop later ones; they
// are joined into the returned error.
func (r *Runner) Run(ctx context.Context, categories []string) ([]report.CategoryStats, error) {
	stats := make([]report.CategoryStats, 0, len(categories))
	var errs []error

	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		s, err := r.RunCategory(ctx, category)
		if err != nil {
			slog.Error("Category failed", "category", category, "error", err)
			s.Error = err.Error()
			errs = append(errs, err)
		}
		stats = append(stats, s)
	}

	if err := r.WriteFailures(); err != nil {
		errs = append(errs, err)
	}

	return stats, errors.Join(errs...)
}

// WriteFailures writes the failure log into the issue's meta directory
func (r *Runner) WriteFailures() error {
	path := r.Layout.MetaPath(failures.FileName)
	if err := r.Failures.Write(path); err != nil {
		return &PersistenceError{Category: "*", Path: path, Err: err}
	}
	slog.Info("Wrote failure log", "path", path,
		"data", r.Failures.Len(failures.Data),
		"cover", r.Failures.Len(failures.Cover))
	return nil
}

type job struct {
	index int
	isbn  string
	row   dataset.Row
}

// RunCategory builds and writes the dataset of one category
func (r *Runner) RunCategory(ctx context.Context, category string) (report.CategoryStats, error) {
	stats := report.CategoryStats{
		Name:    category,
		Heading: r.Headings[category],
		Skipped: map[string]int{},
	}
	logger := slog.With("category", category)

	// Reading
	source, err := r.Layout.FindSource(category)
	if err != nil {
		return stats, err
	}
	table, err := dataset.Load(source)
	if err != nil {
		return stats, err
	}
	stats.Rows = len(table.Rows)
	logger.Info("Processing category", "source", source, "rows", stats.Rows)

	// ForEachRow, part one: decisions are taken in input order so the first
	// occurrence of an ISBN is the one that survives
	jobs := r.decide(category, table, &stats, logger)

	// ForEachRow, part two: lookups and derivation
	results, err := r.fetchAll(ctx, jobs, table.Header, logger)
	if err != nil {
		return stats, err
	}

	// Sorting
	var records []*dataset.Record
	for _, result := range results {
		if result == nil {
			stats.Failed++
			continue
		}
		records = append(records, result)
	}
	SortRecords(records)

	// Persisting
	header := Header(table.Header)
	jsonPath := r.Layout.JSONPath(category)
	if err := dataset.WriteJSON(jsonPath, records); err != nil {
		return stats, &PersistenceError{Category: category, Path: jsonPath, Err: err}
	}
	csvPath := r.Layout.CSVPath(category)
	if err := dataset.WriteCSV(csvPath, header, records); err != nil {
		return stats, &PersistenceError{Category: category, Path: csvPath, Err: err}
	}

	stats.Written = len(records)
	logger.Info("Processed category",
		"written", stats.Written,
		"skipped", stats.SkippedTotal(),
		"failed", stats.Failed,
		"malformed", stats.Malformed)

	return stats, nil
}

func (r *Runner) decide(category string, table *dataset.Table, stats *report.CategoryStats, logger *slog.Logger) []job {
	seen := dedupe.NewSeen()
	var jobs []job

	for _, row := range table.Rows {
		if err := row.Validate(); err != nil {
			id := fmt.Sprintf("%s#%d", category, row.Number)
			logger.Warn("Skipping malformed row", "row", row.Number, "error", err)
			r.Failures.Add(failures.Data, id)
			stats.Malformed++
			continue
		}

		isbn := row.ISBN()
		decision := r.deduplicator().ShouldKeep(isbn, category, seen)
		if !decision.Keep {
			logger.Debug("Skipping row", "isbn", isbn, "reason", decision.Reason)
			stats.Skipped[string(decision.Reason)]++
			continue
		}

		jobs = append(jobs, job{index: len(jobs), isbn: isbn, row: row})
	}

	return jobs
}

// fetchAll looks up every job. Results are stored by job index, so the
// order of completion never shows in the output; nil marks a failed lookup.
func (r *Runner) fetchAll(ctx context.Context, jobs []job, sourceHeader []string, logger *slog.Logger) ([]*dataset.Record, error) {
	results := make([]*dataset.Record, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit())

	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, err := r.Catalog.Fetch(gctx, j.isbn)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("Lookup failed", "isbn", j.isbn, "error", err)
				r.Failures.Add(failures.Data, j.isbn)
				return nil
			}

			rec := *record
			rec.AuthorSortKey = derive.SortKey(j.row.Get(dataset.ColumnAuthor), rec.Authors)
			derived := derive.Derive(rec, r.Overrides.ProperAges)
			results[j.index] = Merge(j.row, sourceHeader, rec, derived)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// SortRecords orders records by their sort key using German collation.
// Records with equal keys keep their relative order.
func SortRecords(records []*dataset.Record) {
	collator := collate.New(language.German)
	sort.SliceStable(records, func(i, j int) bool {
		return collator.CompareString(records[i].Get(FieldSortKey), records[j].Get(FieldSortKey)) < 0
	})
}
