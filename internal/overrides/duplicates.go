package overrides

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
)

// NoDuplicatesMessage is the report line written when every ISBN is unique
const NoDuplicatesMessage = "No duplicates found!"

// Duplicate is an ISBN found in more than one category
type Duplicate struct {
	ISBN string
	// Keep is the category the ISBN stays in
	Keep string
	// Skip lists the other categories, in document order
	Skip []string
}

// FindDuplicates finds ISBNs that appear in several categories. sources maps a
// category to its ISBNs; order is the document order of the categories. The
// ISBN is kept in the first category by order and skipped everywhere else.
// Categories missing from order sort after the known ones, alphabetically.
func FindDuplicates(sources map[string][]string, order []string) []Duplicate {
	categories := orderedCategories(sources, order)

	found := make(map[string][]string)
	for _, category := range categories {
		for _, isbn := range sources[category] {
			isbn = strings.TrimSpace(isbn)
			if isbn == "" {
				continue
			}
			seen := found[isbn]
			if len(seen) > 0 && seen[len(seen)-1] == category {
				continue
			}
			found[isbn] = append(seen, category)
		}
	}

	var duplicates []Duplicate
	for isbn, in := range found {
		if len(in) < 2 {
			continue
		}
		duplicates = append(duplicates, Duplicate{ISBN: isbn, Keep: in[0], Skip: in[1:]})
	}

	sort.Slice(duplicates, func(i, j int) bool {
		return duplicates[i].ISBN < duplicates[j].ISBN
	})

	return duplicates
}

func orderedCategories(sources map[string][]string, order []string) []string {
	var categories []string
	known := make(map[string]bool, len(order))
	for _, category := range order {
		known[category] = true
		if _, ok := sources[category]; ok {
			categories = append(categories, category)
		}
	}

	var rest []string
	for category := range sources {
		if !known[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)

	return append(categories, rest...)
}

// WriteDuplicates writes the duplicates override file into configDir and a
// human-readable report into metaDir
func WriteDuplicates(duplicates []Duplicate, configDir, metaDir string) error {
	skip := make(map[string][]string, len(duplicates))
	var report []string
	for _, d := range duplicates {
		skip[d.ISBN] = d.Skip
		report = append(report, fmt.Sprintf("%s: %s (kept in %s)", d.ISBN, strings.Join(append([]string{d.Keep}, d.Skip...), " & "), d.Keep))
	}
	if len(report) == 0 {
		report = []string{NoDuplicatesMessage}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(skip); err != nil {
		return fmt.Errorf("failed to encode duplicates: %w", err)
	}

	if err := fsutil.WriteFile(filepath.Join(configDir, DuplicatesFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write duplicates file: %w", err)
	}
	if err := fsutil.WriteFile(filepath.Join(metaDir, "duplicates.txt"), []byte(strings.Join(report, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write duplicates report: %w", err)
	}

	return nil
}
