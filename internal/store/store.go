// Package store persists raw catalog payloads keyed by ISBN.
//
// Entries live under the issue directory and are valid for one publishing
// cycle. They never expire unless a maximum age is configured; an expired
// entry reads as a miss and is overwritten by the next successful lookup.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Store is the capability the catalog service needs: read and write one entry
type Store interface {
	Get(ctx context.Context, isbn string) ([]byte, bool, error)
	Put(ctx context.Context, isbn string, payload []byte) error
}

// Cache is a Store with the maintenance operations used by the cache command
type Cache interface {
	Store
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}

// Backends accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SQLiteFileName is the database file created inside the cache directory
const SQLiteFileName = "cache.db"

// Options tune entry expiry
type Options struct {
	// MaxAge of an entry; zero keeps entries forever
	MaxAge time.Duration
	// Now is used for expiry checks, time.Now when nil
	Now func() time.Time
}

func (o Options) expired(storedAt time.Time) bool {
	if o.MaxAge <= 0 {
		return false
	}
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().Sub(storedAt) > o.MaxAge
}

// Open creates the cache for the given backend rooted at dir
func Open(backend, dir string, opts Options) (Cache, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir, opts), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, SQLiteFileName), opts)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

// ErrInvalidKey is returned for ISBNs that cannot be used as a cache key
var ErrInvalidKey = errors.New("invalid cache key")

func validateKey(isbn string) error {
	if isbn == "" || strings.TrimSpace(isbn) != isbn || strings.ContainsAny(isbn, `/\`) || strings.HasPrefix(isbn, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, isbn)
	}
	return nil
}
