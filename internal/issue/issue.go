// Package issue knows where the files of one catalogue issue live.
//
//	issues/<id>/
//	  config/           block-list.json, duplicates.json, proper-ages.json
//	  meta/             failures.json, report.yaml, duplicates.txt, ...
//	  src/{json,csv,xlsx,parquet}/<category>.<ext>
//	  dist/{json,csv}/<category>.<ext>
//	  dist/images/      downloaded covers
//	  dist/.cache/      catalog payloads
package issue

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// Season of an issue
type Season string

const (
	Spring Season = "spring"
	Autumn Season = "autumn"
)

// German returns the season name as printed in the catalogue
func (s Season) German() string {
	if s == Spring {
		return "Frühjahr"
	}
	return "Herbst"
}

var idPattern = regexp.MustCompile(`^\d{4}_0[12]$`)

// ErrInvalidID is returned for ids not shaped like YYYY_01 or YYYY_02
var ErrInvalidID = errors.New("invalid issue id")

// ErrLocked is returned when another run holds the issue lock
var ErrLocked = errors.New("issue is locked by another run")

// DefaultID derives the issue id from a date: January to June belong to
// the spring issue (YYYY_01), the rest of the year to autumn (YYYY_02)
func DefaultID(now time.Time) string {
	if now.Month() <= time.June {
		return fmt.Sprintf("%d_01", now.Year())
	}
	return fmt.Sprintf("%d_02", now.Year())
}

// ValidateID checks the id format
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (expected YYYY_01 or YYYY_02)", ErrInvalidID, id)
	}
	return nil
}

// SourceFormats lists the source directories in lookup order
var SourceFormats = []string{"json", "csv", "xlsx", "parquet"}

// Layout resolves the paths of one issue
type Layout struct {
	ID   string
	Root string
}

// New returns the layout of issue id below issuesDir
func New(issuesDir, id string) Layout {
	return Layout{ID: id, Root: filepath.Join(issuesDir, id)}
}

// Season of the issue
func (l Layout) Season() Season {
	if strings.HasSuffix(l.ID, "_01") {
		return Spring
	}
	return Autumn
}

// Year of the issue
func (l Layout) Year() string {
	year, _, _ := strings.Cut(l.ID, "_")
	return year
}

func (l Layout) ConfigDir() string { return filepath.Join(l.Root, "config") }
func (l Layout) MetaDir() string   { return filepath.Join(l.Root, "meta") }
func (l Layout) SrcDir() string    { return filepath.Join(l.Root, "src") }
func (l Layout) DistDir() string   { return filepath.Join(l.Root, "dist") }
func (l Layout) ImagesDir() string { return filepath.Join(l.DistDir(), "images") }
func (l Layout) CacheDir() string  { return filepath.Join(l.DistDir(), ".cache") }
func (l Layout) LockPath() string  { return filepath.Join(l.Root, ".booklist.lock") }

// SourceDir is the directory holding sources of one format
func (l Layout) SourceDir(format string) string {
	return filepath.Join(l.SrcDir(), format)
}

// JSONPath is the output dataset of a category
func (l Layout) JSONPath(category string) string {
	return filepath.Join(l.DistDir(), "json", category+".json")
}

// CSVPath is the CSV twin of JSONPath
func (l Layout) CSVPath(category string) string {
	return filepath.Join(l.DistDir(), "csv", category+".csv")
}

// MetaPath is a file in the meta directory
func (l Layout) MetaPath(name string) string {
	return filepath.Join(l.MetaDir(), name)
}

// List returns the ids of all issues below issuesDir, oldest first.
// Directories not named like an issue are ignored.
func List(issuesDir string) ([]string, error) {
	entries, err := os.ReadDir(issuesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && idPattern.MatchString(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Outputs lists the categories with a written JSON dataset, alphabetically
func (l Layout) Outputs() []string {
	matches, _ := filepath.Glob(filepath.Join(l.DistDir(), "json", "*.json"))
	categories := make([]string, 0, len(matches))
	for _, match := range matches {
		categories = append(categories, strings.TrimSuffix(filepath.Base(match), ".json"))
	}
	sort.Strings(categories)
	return categories
}

// Exists reports whether the issue directory exists
func (l Layout) Exists() bool {
	info, err := os.Stat(l.Root)
	return err == nil && info.IsDir()
}

// Create builds the directory skeleton and empty override files. Existing
// files are left alone.
func (l Layout) Create() error {
	dirs := []string{l.ConfigDir(), l.MetaDir(), l.ImagesDir(), l.CacheDir(),
		filepath.Join(l.DistDir(), "json"), filepath.Join(l.DistDir(), "csv")}
	for _, format := range SourceFormats {
		dirs = append(dirs, l.SourceDir(format))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	for _, name := range []string{"block-list.json", "duplicates.json", "proper-ages.json"} {
		path := filepath.Join(l.ConfigDir(), name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		_, werr := file.WriteString("{}\n")
		if err := file.Close(); err != nil && werr == nil {
			werr = err
		}
		if werr != nil {
			return fmt.Errorf("failed to write %s: %w", path, werr)
		}
	}

	slog.Info("Created issue skeleton", "issue", l.ID, "path", l.Root)
	return nil
}

// FindSource returns the source file of a category, trying the formats in
// SourceFormats order
func (l Layout) FindSource(category string) (string, error) {
	for _, format := range SourceFormats {
		path := filepath.Join(l.SourceDir(format), category+"."+format)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no source file for category %s in %s", category, l.SrcDir())
}

// Categories lists the categories that have a source file. Categories in
// order come first, in that order; unknown ones follow alphabetically.
func (l Layout) Categories(order []string) []string {
	found := make(map[string]bool)
	for _, format := range SourceFormats {
		matches, _ := filepath.Glob(filepath.Join(l.SourceDir(format), "*."+format))
		for _, match := range matches {
			found[strings.TrimSuffix(filepath.Base(match), "."+format)] = true
		}
	}

	var categories []string
	for _, category := range order {
		if found[category] {
			categories = append(categories, category)
			delete(found, category)
		}
	}

	var rest []string
	for category := range found {
		rest = append(rest, category)
	}
	sort.Strings(rest)

	return append(categories, rest...)
}

// Lock takes the exclusive run lock of the issue. The returned function
// releases it.
func (l Layout) Lock() (func(), error) {
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create issue directory: %w", err)
	}

	lock := flock.New(l.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", l.LockPath(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, l.LockPath())
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release issue lock", "path", l.LockPath(), "error", err)
		}
	}, nil
}
