package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/lehigh-university-libraries/booklist/internal/derive"
	"github.com/lehigh-university-libraries/booklist/internal/failures"
	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
	"github.com/lehigh-university-libraries/booklist/internal/report"
	"golang.org/x/sync/errgroup"
)

// Files written by Prefetch into the meta directory
const (
	ImproperAgesFile = "improper-ages.json"
	AgeRatingsReport = "age-ratings.txt"
)

// ImproperAge is a catalog age rating that needs a manual override
type ImproperAge struct {
	ISBN      string `json:"-"`
	Title     string `json:"title"`
	AgeRating string `json:"age_rating"`
}

// Prefetch warms the cache for every ISBN of the given categories, downloads
// the covers and reports catalog age ratings that need an override. Every
// ISBN is looked up once, even when several categories list it.
func (r *Runner) Prefetch(ctx context.Context, categories []string) ([]report.CategoryStats, error) {
	var (
		stats []report.CategoryStats
		errs  []error
		isbns []string
	)
	owners := make(map[string][]int)

	for _, category := range categories {
		s := report.CategoryStats{Name: category, Heading: r.Headings[category]}
		source, err := r.Layout.FindSource(category)
		if err == nil {
			err = r.collect(category, source, &s, owners, &isbns, len(stats))
		}
		if err != nil {
			slog.Error("Category failed", "category", category, "error", err)
			s.Error = err.Error()
			errs = append(errs, err)
		}
		stats = append(stats, s)
	}

	var (
		mu       sync.Mutex
		improper []ImproperAge
		fetched  = make(map[string]bool, len(isbns))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit())
	for _, isbn := range isbns {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			record, err := r.Catalog.Fetch(gctx, isbn)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Lookup failed", "isbn", isbn, "error", err)
				r.Failures.Add(failures.Data, isbn)
				return nil
			}

			if r.Covers != nil {
				slug := derive.Slug(record.Title)
				if err := r.Covers.DownloadCover(gctx, isbn, record.CoverURL, slug, r.Layout.ImagesDir()); err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					slog.Warn("Cover download failed", "isbn", isbn, "error", err)
					r.Failures.Add(failures.Cover, isbn)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			fetched[isbn] = true
			if _, ok := r.Overrides.ProperAges[isbn]; !ok && derive.IsImproperAgeRating(record.AgeRating) {
				improper = append(improper, ImproperAge{ISBN: isbn, Title: record.Title, AgeRating: record.AgeRating})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	for isbn, indexes := range owners {
		for _, i := range indexes {
			if fetched[isbn] {
				stats[i].Written++
			} else {
				stats[i].Failed++
			}
		}
	}

	if err := r.writeImproperAges(improper); err != nil {
		errs = append(errs, err)
	}
	if err := r.WriteFailures(); err != nil {
		errs = append(errs, err)
	}

	slog.Info("Prefetch finished", "isbns", len(isbns), "fetched", len(fetched), "improper_ages", len(improper))
	return stats, errors.Join(errs...)
}

// collect registers the ISBNs of one category source. Every row counts
// towards its category; only the first sighting of an ISBN schedules a lookup.
func (r *Runner) collect(category, source string, s *report.CategoryStats, owners map[string][]int, isbns *[]string, index int) error {
	table, err := dataset.Load(source)
	if err != nil {
		return err
	}
	s.Rows = len(table.Rows)

	local := make(map[string]bool)
	for _, row := range table.Rows {
		if err := row.Validate(); err != nil {
			r.Failures.Add(failures.Data, fmt.Sprintf("%s#%d", category, row.Number))
			s.Malformed++
			continue
		}
		isbn := row.ISBN()
		if local[isbn] {
			continue
		}
		local[isbn] = true

		if _, ok := owners[isbn]; !ok {
			*isbns = append(*isbns, isbn)
		}
		owners[isbn] = append(owners[isbn], index)
	}
	return nil
}

func (r *Runner) writeImproperAges(improper []ImproperAge) error {
	sort.Slice(improper, func(i, j int) bool { return improper[i].ISBN < improper[j].ISBN })

	byISBN := make(map[string]ImproperAge, len(improper))
	lines := make([]string, 0, len(improper))
	for _, entry := range improper {
		byISBN[entry.ISBN] = entry
		age := entry.AgeRating
		if strings.TrimSpace(age) == "" {
			age = derive.NoAgeRating
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", entry.ISBN, entry.Title, age))
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(byISBN); err != nil {
		return fmt.Errorf("failed to encode improper age ratings: %w", err)
	}

	jsonPath := r.Layout.MetaPath(ImproperAgesFile)
	if err := fsutil.WriteFile(jsonPath, buf.Bytes(), 0o644); err != nil {
		return &PersistenceError{Category: "*", Path: jsonPath, Err: err}
	}

	text := strings.Join(lines, "\n")
	if text != "" {
		text += "\n"
	}
	textPath := r.Layout.MetaPath(AgeRatingsReport)
	if err := fsutil.WriteFile(textPath, []byte(text), 0o644); err != nil {
		return &PersistenceError{Category: "*", Path: textPath, Err: err}
	}

	return nil
}
