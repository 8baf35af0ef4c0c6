package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	r := New("process", "2026_02", time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	r.Categories = append(r.Categories,
		CategoryStats{Name: "bilderbuch", Rows: 10, Skipped: map[string]int{"block_listed": 1}, Failed: 1, Written: 8},
		CategoryStats{Name: "ab6", Rows: 3, Written: 0, Error: "disk full"},
	)
	r.Cache = CacheStats{Hits: 4, Misses: 6}
	r.Failures = FailureStats{Data: 1}
	return r
}

func TestSaveAndLoad(t *testing.T) {
	r := sampleReport()
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "meta", FileName)
	require.NoError(t, r.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, r, loaded)
	assert.Equal(t, "2026-10-17T09:00:00Z", loaded.Timestamp)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Render(&buf))

	out := strings.ToLower(buf.String())
	for _, want := range []string{"bilderbuch", "1 (block_listed 1)", "error", "cache 4/10"} {
		assert.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}
}
