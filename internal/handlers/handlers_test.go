package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/booklist/internal/catalog"
	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/models"
)

type fakeFetcher map[string]models.BibliographicRecord

func (f fakeFetcher) Fetch(_ context.Context, isbn string) (*models.BibliographicRecord, error) {
	record, ok := f[isbn]
	if !ok {
		return nil, &catalog.FetchError{ISBN: isbn, Err: catalog.ErrNotFound}
	}
	return &record, nil
}

func setup(t *testing.T) (string, issue.Layout) {
	t.Helper()
	dir := t.TempDir()
	layout := issue.New(dir, "2026_02")
	if err := layout.Create(); err != nil {
		t.Fatalf("Failed to create issue: %v", err)
	}
	if err := os.WriteFile(layout.JSONPath("comic"), []byte(`[{"ISBN": "1"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.CSVPath("comic"), []byte("ISBN\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(layout.ConfigDir(), "proper-ages.json"), []byte(`{"9780000000001": "ab 5 Jahren"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, layout
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestIssueEndpoints(t *testing.T) {
	dir, _ := setup(t)
	h := New(dir, nil)

	tests := []struct {
		name     string
		target   string
		code     int
		contains string
	}{
		{"list issues", "/api/issues", http.StatusOK, `["2026_02"]`},
		{"issue detail", "/api/issues/2026_02", http.StatusOK, `"datasets":["comic"]`},
		{"unknown issue", "/api/issues/2030_01", http.StatusNotFound, "Issue not found"},
		{"invalid issue id", "/api/issues/latest", http.StatusBadRequest, "invalid issue id"},
		{"json dataset", "/api/issues/2026_02/categories/comic", http.StatusOK, `[{"ISBN": "1"}]`},
		{"csv dataset", "/api/issues/2026_02/categories/comic?format=csv", http.StatusOK, "ISBN\n1\n"},
		{"unknown format", "/api/issues/2026_02/categories/comic?format=xml", http.StatusBadRequest, "Unsupported format"},
		{"missing dataset", "/api/issues/2026_02/categories/ab6", http.StatusNotFound, "Dataset not found"},
		{"empty failure log", "/api/issues/2026_02/failures", http.StatusOK, `{"data":[],"cover":[]}`},
		{"preview without catalog", "/api/preview/9780000000001", http.StatusServiceUnavailable, "Catalog not configured"},
		{"cover outside images", "/covers/2026_02/cover.png", http.StatusBadRequest, "Invalid cover file"},
		{"healthcheck", "/healthcheck", http.StatusOK, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			if rec.Code != tt.code {
				t.Fatalf("Expected status %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("Expected body to contain %q, got %q", tt.contains, rec.Body.String())
			}
		})
	}
}

func TestPreview(t *testing.T) {
	dir, _ := setup(t)
	h := New(dir, fakeFetcher{
		"9780000000001": {
			ISBN:        "9780000000001",
			Title:       "Der Grüffelo",
			Publisher:   "Beltz Verlag",
			ReleaseYear: "2024",
			Kind:        models.KindBook,
			AgeRating:   "ab 4 bis 6 Jahre",
		},
	})

	rec := get(t, h, "/api/preview/978-0-00-000000-1?issue=2026_02")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var preview Preview
	if err := json.Unmarshal(rec.Body.Bytes(), &preview); err != nil {
		t.Fatalf("Invalid preview JSON: %v", err)
	}
	if preview.Derived.AgeRating != "ab 5 Jahren" {
		t.Errorf("Expected override age rating, got %q", preview.Derived.AgeRating)
	}
	if preview.Derived.CoverSlug != "der-grueffelo" {
		t.Errorf("Unexpected cover slug %q", preview.Derived.CoverSlug)
	}

	rec = get(t, h, "/api/preview/9780000000001")
	var plain Preview
	if err := json.Unmarshal(rec.Body.Bytes(), &plain); err != nil {
		t.Fatalf("Invalid preview JSON: %v", err)
	}
	if plain.Derived.AgeRating != "ab 4 bis 6 Jahre" {
		t.Errorf("Expected catalog age rating without issue, got %q", plain.Derived.AgeRating)
	}

	if rec := get(t, h, "/api/preview/9780000000002"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown ISBN, got %d", rec.Code)
	}
}
