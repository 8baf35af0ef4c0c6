package models

import "github.com/shopspring/decimal"

// Kind classifies a catalog product by the way it is described in print
type Kind string

const (
	KindBook     Kind = "book"
	KindMedia    Kind = "media"
	KindCalendar Kind = "calendar"
	KindOther    Kind = "other"
)

// ParseKind maps a catalog product type onto a Kind, falling back to KindOther
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindBook, KindMedia, KindCalendar:
		return Kind(s)
	}

	switch s {
	case "audio", "audiobook", "cd", "hoerbuch":
		return KindMedia
	case "kalender":
		return KindCalendar
	}

	return KindOther
}

// Participant roles, in the order they are printed
const (
	RoleIllustrator  = "illustrator"
	RoleDrawer       = "drawer"
	RolePhotographer = "photographer"
	RoleTranslator   = "translator"
	RoleEditor       = "editor"
	RoleParticipant  = "participant"
	RoleOriginal     = "original"
	RoleNarrator     = "narrator"
	RoleComposer     = "composer"
	RoleProducer     = "producer"
	RoleDirector     = "director"
)

// BibliographicRecord is the canonical catalog data for one title
type BibliographicRecord struct {
	ISBN          string              `json:"isbn"`
	Authors       []string            `json:"authors,omitempty"` // "Last, First" as delivered by the catalog
	AuthorDisplay string              `json:"author_display"`
	AuthorSortKey string              `json:"author_sort_key"`
	Title         string              `json:"title"`
	Subtitle      string              `json:"subtitle,omitempty"`
	Publisher     string              `json:"publisher"`
	ReleaseYear   string              `json:"release_year"`
	RetailPrice   decimal.Decimal     `json:"retail_price"`
	Binding       string              `json:"binding,omitempty"`
	Kind          Kind                `json:"kind"`
	PageCount     int                 `json:"page_count,omitempty"`
	Duration      string              `json:"duration,omitempty"`
	Dimensions    string              `json:"dimensions,omitempty"`
	AgeRating     string              `json:"age_rating,omitempty"`
	Description   []string            `json:"description,omitempty"`
	Participants  map[string][]string `json:"participants,omitempty"`
	CoverURL      string              `json:"cover_url,omitempty"`
}

// DerivedFields holds the computed print-layout texts for a record
type DerivedFields struct {
	Heading      string `json:"heading"`
	Description  string `json:"description"`
	Participants string `json:"participants"`
	Information  string `json:"information"`
	Closing      string `json:"closing"`
	AgeRating    string `json:"age_rating"`
	CoverSlug    string `json:"cover_slug"`
	Price        string `json:"price"`
}
