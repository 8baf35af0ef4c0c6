package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS entries (
	isbn      TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at INTEGER NOT NULL
)`

// SQLiteStore keeps entries in a single SQLite database file
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts Options
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string, opts Options) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range append(pragmas, sqliteSchema) {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return &SQLiteStore{db: db, path: path, opts: opts}, nil
}

func (s *SQLiteStore) now() time.Time {
	if s.opts.Now != nil {
		return s.opts.Now()
	}
	return time.Now()
}

func (s *SQLiteStore) Get(ctx context.Context, isbn string) ([]byte, bool, error) {
	var payload []byte
	var storedAt int64

	err := s.db.QueryRowContext(ctx,
		"SELECT payload, stored_at FROM entries WHERE isbn = ?", isbn,
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if s.opts.expired(time.Unix(storedAt, 0)) {
		return nil, false, nil
	}

	return payload, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, isbn string, payload []byte) error {
	if err := validateKey(isbn); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (isbn, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(isbn) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		isbn, payload, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
