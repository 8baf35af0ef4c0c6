package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/lehigh-university-libraries/booklist/internal/failures"
	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/report"
)

var categoryPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// IssueSummary is the detail view of one issue
type IssueSummary struct {
	ID       string         `json:"id"`
	Season   issue.Season   `json:"season"`
	Year     string         `json:"year"`
	Sources  []string       `json:"sources"`
	Datasets []string       `json:"datasets"`
	Report   *report.Report `json:"report,omitempty"`
}

func (h *Handler) HandleIssues(w http.ResponseWriter, r *http.Request) {
	ids, err := issue.List(h.issuesDir)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.writeJSON(w, ids)
}

func (h *Handler) HandleIssueDetail(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.layoutOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	summary := IssueSummary{
		ID:       layout.ID,
		Season:   layout.Season(),
		Year:     layout.Year(),
		Sources:  layout.Categories(nil),
		Datasets: layout.Outputs(),
	}

	data, err := os.ReadFile(layout.MetaPath(report.FileName))
	switch {
	case err == nil:
		if summary.Report, err = report.Load(data); err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	case !errors.Is(err, os.ErrNotExist):
		h.writeError(w, "Unable to read report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, summary)
}

// HandleDataset serves the processed dataset of a category, as JSON or with
// ?format=csv as CSV
func (h *Handler) HandleDataset(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.layoutOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	category := r.PathValue("category")
	if !categoryPattern.MatchString(category) {
		h.writeError(w, "Invalid category", http.StatusBadRequest)
		return
	}

	path, contentType := layout.JSONPath(category), "application/json"
	switch r.URL.Query().Get("format") {
	case "", "json":
	case "csv":
		path, contentType = layout.CSVPath(category), "text/csv; charset=utf-8"
	default:
		h.writeError(w, "Unsupported format", http.StatusBadRequest)
		return
	}

	h.serveFile(w, path, contentType)
}

func (h *Handler) HandleFailures(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.layoutOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	path := layout.MetaPath(failures.FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		h.writeJSON(w, failures.New())
		return
	}
	h.serveFile(w, path, "application/json")
}

// HandleCover serves a downloaded cover image
func (h *Handler) HandleCover(w http.ResponseWriter, r *http.Request) {
	layout, ok := h.layoutOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	file := r.PathValue("file")
	if file != filepath.Base(file) || filepath.Ext(file) != ".jpg" {
		h.writeError(w, "Invalid cover file", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(layout.ImagesDir(), file))
}

func (h *Handler) serveFile(w http.ResponseWriter, path, contentType string) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		h.writeError(w, "Dataset not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Unable to read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		h.writeError(w, "Unable to write response", http.StatusInternalServerError)
	}
}
