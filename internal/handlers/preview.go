package handlers

import (
	"errors"
	"net/http"

	"github.com/lehigh-university-libraries/booklist/internal/catalog"
	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/lehigh-university-libraries/booklist/internal/derive"
	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/lehigh-university-libraries/booklist/internal/overrides"
)

// Preview shows what a single ISBN would look like in print
type Preview struct {
	Record  *models.BibliographicRecord `json:"record"`
	Derived models.DerivedFields        `json:"derived"`
}

// HandlePreview looks up an ISBN and derives its print texts. With
// ?issue=<id> the issue's age rating overrides apply.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		h.writeError(w, "Catalog not configured", http.StatusServiceUnavailable)
		return
	}

	isbn := dataset.NormalizeISBN(r.PathValue("isbn"))
	if isbn == "" {
		h.writeError(w, "Missing ISBN", http.StatusBadRequest)
		return
	}

	properAges := map[string]string{}
	if id := r.URL.Query().Get("issue"); id != "" {
		layout, ok := h.layoutOrError(w, id)
		if !ok {
			return
		}
		ov, err := overrides.Load(layout.ConfigDir())
		if err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		properAges = ov.ProperAges
	}

	record, err := h.catalog.Fetch(r.Context(), isbn)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		h.writeError(w, "ISBN not found in catalog", http.StatusNotFound)
		return
	case err != nil:
		h.writeError(w, "Catalog lookup failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.writeJSON(w, Preview{
		Record:  record,
		Derived: derive.Derive(*record, properAges),
	})
}
