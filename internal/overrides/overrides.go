// Package overrides loads the operator-curated override files of an issue.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/dataset"
)

// File names inside an issue's config directory
const (
	BlockListFile  = "block-list.json"
	DuplicatesFile = "duplicates.json"
	ProperAgesFile = "proper-ages.json"
)

// Config holds the overrides of one run. It is not modified after Load.
type Config struct {
	// BlockList maps a category to the ISBNs always skipped in it
	BlockList map[string]map[string]bool
	// Duplicates maps an ISBN to the categories it must be skipped in
	Duplicates map[string]map[string]bool
	// ProperAges maps an ISBN to a corrected age rating
	ProperAges map[string]string
}

// Empty returns a Config without any overrides
func Empty() *Config {
	return &Config{
		BlockList:  map[string]map[string]bool{},
		Duplicates: map[string]map[string]bool{},
		ProperAges: map[string]string{},
	}
}

// Load reads the override files from dir. Missing files are empty maps;
// unparsable files are errors naming the offending path.
func Load(dir string) (*Config, error) {
	cfg := Empty()

	var blockList map[string][]string
	if err := readJSON(filepath.Join(dir, BlockListFile), &blockList); err != nil {
		return nil, err
	}
	for category, isbns := range blockList {
		set := make(map[string]bool, len(isbns))
		for _, isbn := range isbns {
			if isbn = dataset.NormalizeISBN(isbn); isbn != "" {
				set[isbn] = true
			}
		}
		cfg.BlockList[strings.TrimSpace(category)] = set
	}

	var duplicates map[string][]string
	if err := readJSON(filepath.Join(dir, DuplicatesFile), &duplicates); err != nil {
		return nil, err
	}
	for isbn, categories := range duplicates {
		cfg.Duplicates[dataset.NormalizeISBN(isbn)] = toSet(categories)
	}

	var properAges map[string]string
	if err := readJSON(filepath.Join(dir, ProperAgesFile), &properAges); err != nil {
		return nil, err
	}
	for isbn, age := range properAges {
		cfg.ProperAges[dataset.NormalizeISBN(isbn)] = strings.TrimSpace(age)
	}

	slog.Debug("Loaded overrides",
		"dir", dir,
		"block_list_categories", len(cfg.BlockList),
		"duplicates", len(cfg.Duplicates),
		"proper_ages", len(cfg.ProperAges))

	return cfg, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Override file not found, using empty defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = true
		}
	}
	return set
}
