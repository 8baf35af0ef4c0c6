package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
)

// FileStore keeps one JSON file per ISBN in a directory
type FileStore struct {
	dir  string
	opts Options
}

// NewFileStore creates a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string, opts Options) *FileStore {
	return &FileStore{dir: dir, opts: opts}
}

// Dir returns the cache directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(isbn string) string {
	return filepath.Join(s.dir, isbn+".json")
}

// Get reads the entry for isbn. Missing and expired entries report false.
func (s *FileStore) Get(_ context.Context, isbn string) ([]byte, bool, error) {
	if err := validateKey(isbn); err != nil {
		return nil, false, err
	}

	path := s.path(isbn)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat cache entry: %w", err)
	}

	if s.opts.expired(info.ModTime()) {
		slog.Debug("Cache entry expired", "isbn", isbn, "stored_at", info.ModTime())
		return nil, false, nil
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return payload, true, nil
}

// Put writes the entry through a temp file and rename, so readers never see
// a partial payload
func (s *FileStore) Put(_ context.Context, isbn string, payload []byte) error {
	if err := validateKey(isbn); err != nil {
		return err
	}

	if err := fsutil.WriteFile(s.path(isbn), payload, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries
func (s *FileStore) Count(_ context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return len(matches), nil
}

// Clear removes all entries and leftover temp files
func (s *FileStore) Clear(_ context.Context) error {
	for _, pattern := range []string{"*.json", "*.tmp"} {
		matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to list cache entries: %w", err)
		}
		for _, match := range matches {
			if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove cache entry: %w", err)
			}
		}
	}
	slog.Info("Cleared cache", "path", s.dir)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
