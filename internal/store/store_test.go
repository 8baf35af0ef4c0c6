package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T, opts Options) map[string]Cache {
	t.Helper()

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), SQLiteFileName), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Cache{
		"file":   NewFileStore(filepath.Join(t.TempDir(), ".cache"), opts),
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "9780000000001")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "9780000000001", []byte(`{"title":"A"}`)))
			require.NoError(t, s.Put(ctx, "9780000000001", []byte(`{"title":"B"}`)))

			payload, ok, err := s.Get(ctx, "9780000000001")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `{"title":"B"}`, string(payload))

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			require.NoError(t, s.Clear(ctx))
			n, err = s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestPutRejectsPathKeys(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t, Options{}) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
				err := s.Put(ctx, key, []byte("{}"))
				assert.True(t, errors.Is(err, ErrInvalidKey), "key %q", key)
			}
		})
	}
}

func TestMaxAgeTreatsOldEntriesAsMisses(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs := NewFileStore(dir, Options{MaxAge: time.Hour})
	require.NoError(t, fs.Put(ctx, "1", []byte("{}")))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "1.json"), old, old))

	_, ok, err := fs.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now()
	sqlite, err := OpenSQLite(filepath.Join(dir, SQLiteFileName), Options{
		MaxAge: time.Hour,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)
	defer sqlite.Close()

	require.NoError(t, sqlite.Put(ctx, "1", []byte("{}")))
	_, ok, err = sqlite.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(3 * time.Hour)
	_, ok, err = sqlite.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(t.TempDir(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, "9780000000001", []byte(`{"title":"same"}`)))
			if payload, ok, err := s.Get(ctx, "9780000000001"); err == nil && ok {
				assert.JSONEq(t, `{"title":"same"}`, string(payload))
			}
		}()
	}
	wg.Wait()

	leftovers, err := filepath.Glob(filepath.Join(s.Dir(), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir(), Options{})
	assert.Error(t, err)
}
