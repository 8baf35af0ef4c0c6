// Package handlers serves the datasets and run metadata of all issues over
// HTTP, for editors checking a run and for layout tooling pulling datasets.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/models"
)

// Fetcher looks up one ISBN
type Fetcher interface {
	Fetch(ctx context.Context, isbn string) (*models.BibliographicRecord, error)
}

type Handler struct {
	issuesDir string
	catalog   Fetcher
}

// New creates a handler for the issues below issuesDir. catalog may be nil,
// which disables the preview endpoint.
func New(issuesDir string, catalog Fetcher) *Handler {
	return &Handler{
		issuesDir: issuesDir,
		catalog:   catalog,
	}
}

// Routes registers all endpoints on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/issues", h.HandleIssues)
	mux.HandleFunc("GET /api/issues/{id}", h.HandleIssueDetail)
	mux.HandleFunc("GET /api/issues/{id}/categories/{category}", h.HandleDataset)
	mux.HandleFunc("GET /api/issues/{id}/failures", h.HandleFailures)
	mux.HandleFunc("GET /api/preview/{isbn}", h.HandlePreview)
	mux.HandleFunc("GET /covers/{id}/{file}", h.HandleCover)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// layoutOrError resolves the issue of the request path
func (h *Handler) layoutOrError(w http.ResponseWriter, id string) (issue.Layout, bool) {
	if err := issue.ValidateID(id); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return issue.Layout{}, false
	}
	layout := issue.New(h.issuesDir, id)
	if !layout.Exists() {
		h.writeError(w, "Issue not found", http.StatusNotFound)
		return layout, false
	}
	return layout, true
}
