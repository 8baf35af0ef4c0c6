package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var products = map[string]string{
	"9780000000001": `{"isbn": "9780000000001", "title": "Zebra", "authors": ["Zeller, Zoe"], "publisher": "Beltz Verlag", "release_year": "2024", "type": "book", "pages": 32, "age": "ab 4 Jahren"}`,
	"9780000000002": `{"isbn": "9780000000002", "title": "Apfel", "authors": ["Arndt, Anna"], "publisher": "Carlsen", "release_year": "2023", "type": "book", "age": "ab 3 bis 5 Jahre"}`,
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isbn := strings.TrimPrefix(r.URL.Path, "/products/")
		payload, ok := products[isbn]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, dir, baseURL string) string {
	t.Helper()
	path := filepath.Join(dir, "booklist.toml")
	content := fmt.Sprintf(`[paths]
issues_dir = %q
login_file = ""

[catalog]
base_url = %q

[cache]
backend = "sqlite"

[pipeline]
concurrency = 4
download_covers = false

[logging]
format = "text"
level = "error"
`, filepath.Join(dir, "issues"), baseURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIssueProcessAndCache(t *testing.T) {
	dir := t.TempDir()
	server := newCatalogServer(t)
	cfg := writeConfig(t, dir, server.URL)

	out, err := run(t, "--config", cfg, "issue", "new", "2026_02")
	require.NoError(t, err)
	assert.Contains(t, out, "Herbst")

	issueDir := filepath.Join(dir, "issues", "2026_02")
	source := `[
	{"ISBN": "978-0-00-000000-1", "AutorIn": "Zeller, Zoe"},
	{"ISBN": "9780000000002", "AutorIn": "Arndt, Anna"},
	{"ISBN": "9780000000009", "AutorIn": "Unbekannt"}
]`
	require.NoError(t, os.WriteFile(filepath.Join(issueDir, "src", "json", "bilderbuch.json"), []byte(source), 0o644))

	out, err = run(t, "--config", cfg, "--issue", "2026_02", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "bilderbuch")

	data, err := os.ReadFile(filepath.Join(issueDir, "dist", "json", "bilderbuch.json"))
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "9780000000002", records[0]["ISBN"])
	assert.Equal(t, "9780000000001", records[1]["ISBN"])

	assert.FileExists(t, filepath.Join(issueDir, "dist", "csv", "bilderbuch.csv"))
	assert.FileExists(t, filepath.Join(issueDir, "meta", ProcessReportFile))

	data, err = os.ReadFile(filepath.Join(issueDir, "meta", "failures.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": ["9780000000009"], "cover": []}`, string(data))

	out, err = run(t, "--config", cfg, "--issue", "2026_02", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2 record(s) cached")

	_, err = run(t, "--config", cfg, "--issue", "2026_02", "cache", "clear")
	require.NoError(t, err)

	out, err = run(t, "--config", cfg, "--issue", "2026_02", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "0 record(s) cached")
}

func TestFetchReportsImproperAges(t *testing.T) {
	dir := t.TempDir()
	server := newCatalogServer(t)
	cfg := writeConfig(t, dir, server.URL)

	_, err := run(t, "--config", cfg, "issue", "new", "2026_01")
	require.NoError(t, err)

	issueDir := filepath.Join(dir, "issues", "2026_01")
	source := `[{"ISBN": "9780000000001"}, {"ISBN": "9780000000002"}]`
	require.NoError(t, os.WriteFile(filepath.Join(issueDir, "src", "json", "ab6.json"), []byte(source), 0o644))

	_, err = run(t, "--config", cfg, "--issue", "2026_01", "fetch", "--no-covers")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(issueDir, "meta", "improper-ages.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "9780000000002")
	assert.NotContains(t, string(data), "9780000000001")
	assert.FileExists(t, filepath.Join(issueDir, "meta", FetchReportFile))
}

func TestDuplicatesCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://localhost:1")

	_, err := run(t, "--config", cfg, "issue", "new", "2026_02")
	require.NoError(t, err)

	issueDir := filepath.Join(dir, "issues", "2026_02")
	src := filepath.Join(issueDir, "src", "json")
	require.NoError(t, os.WriteFile(filepath.Join(src, "bilderbuch.json"), []byte(`[{"ISBN": "1"}, {"ISBN": "2"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "ab6.json"), []byte(`[{"ISBN": "2"}]`), 0o644))

	out, err := run(t, "--config", cfg, "--issue", "2026_02", "duplicates")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 duplicate")

	data, err := os.ReadFile(filepath.Join(issueDir, "config", "duplicates.json"))
	require.NoError(t, err)
	var duplicates map[string][]string
	require.NoError(t, json.Unmarshal(data, &duplicates))
	assert.Equal(t, map[string][]string{"2": {"ab6"}}, duplicates)
}

func TestProcessRequiresExistingIssue(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "http://localhost:1")

	_, err := run(t, "--config", cfg, "--issue", "2030_01", "process")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
