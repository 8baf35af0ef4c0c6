package derive

import (
	"testing"

	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/shopspring/decimal"
)

func TestInformation(t *testing.T) {
	tests := []struct {
		name     string
		record   models.BibliographicRecord
		expected string
	}{
		{
			name: "book with binding and pages",
			record: models.BibliographicRecord{
				Kind:        models.KindBook,
				ReleaseYear: "2024",
				Publisher:   "Beispiel Verlag",
				Binding:     "Hardcover",
				PageCount:   32,
			},
			expected: "2024 im Beispiel Verlag erschienen; Hardcover und 32 Seiten stark.",
		},
		{
			name: "publisher without verlag uses bei",
			record: models.BibliographicRecord{
				Kind:        models.KindBook,
				ReleaseYear: "2023",
				Publisher:   "Carlsen",
				Binding:     "Taschenbuch",
				PageCount:   240,
			},
			expected: "2023 bei Carlsen erschienen; Taschenbuch und 240 Seiten stark.",
		},
		{
			name: "verlag match is case insensitive",
			record: models.BibliographicRecord{
				Kind:        models.KindOther,
				ReleaseYear: "2022",
				Publisher:   "Moritz VERLAG",
			},
			expected: "2022 im Moritz VERLAG erschienen.",
		},
		{
			name: "media uses duration",
			record: models.BibliographicRecord{
				Kind:        models.KindMedia,
				ReleaseYear: "2024",
				Publisher:   "Hörcompany",
				Duration:    "ca. 180 Minuten",
			},
			expected: "2024 bei Hörcompany erschienen; ca. 180 Minuten.",
		},
		{
			name: "calendar has no semicolon",
			record: models.BibliographicRecord{
				Kind:        models.KindCalendar,
				ReleaseYear: "2025",
				Publisher:   "Kalender Verlag",
				Dimensions:  "30 x 40 cm",
			},
			expected: "2025 im Kalender Verlag erschienen und 30 x 40 cm groß.",
		},
		{
			name: "book without binding or pages ends with a single period",
			record: models.BibliographicRecord{
				Kind:        models.KindBook,
				ReleaseYear: "2024",
				Publisher:   "Beispiel Verlag",
			},
			expected: "2024 im Beispiel Verlag erschienen.",
		},
		{
			name: "media duration ending in a period",
			record: models.BibliographicRecord{
				Kind:        models.KindMedia,
				ReleaseYear: "2024",
				Publisher:   "Hörcompany",
				Duration:    "ca. 60 Min.",
			},
			expected: "2024 bei Hörcompany erschienen; ca. 60 Min.",
		},
		{
			name: "binding ending in a period without pages",
			record: models.BibliographicRecord{
				Kind:        models.KindBook,
				ReleaseYear: "2023",
				Publisher:   "Carlsen",
				Binding:     "Geb.",
			},
			expected: "2023 bei Carlsen erschienen; Geb.",
		},
		{
			name: "media without duration",
			record: models.BibliographicRecord{
				Kind:        models.KindMedia,
				ReleaseYear: "2024",
				Publisher:   "Der Audio Verlag",
			},
			expected: "2024 im Der Audio Verlag erschienen.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Information(tt.record)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestClosing(t *testing.T) {
	const isbn = "9780000000001"

	calendar := models.BibliographicRecord{ISBN: isbn, Kind: models.KindCalendar, AgeRating: "ab 3 Jahren"}
	if got := Closing(calendar, AgeRating(isbn, calendar.AgeRating, nil)); got != isbn {
		t.Errorf("Expected calendar closing %q, got %q", isbn, got)
	}

	book := models.BibliographicRecord{ISBN: isbn, Kind: models.KindBook}
	want := "9780000000001 - Keine Altersangabe"
	if got := Closing(book, AgeRating(isbn, book.AgeRating, nil)); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestAgeRating(t *testing.T) {
	tests := []struct {
		name       string
		catalog    string
		properAges map[string]string
		expected   string
	}{
		{"override wins", "ab 4 bis 6 Jahre", map[string]string{"1": "ab 4 Jahren"}, "ab 4 Jahren"},
		{"catalog value", "ab 8 Jahren", nil, "ab 8 Jahren"},
		{"blank catalog value", "  ", nil, NoAgeRating},
		{"override for other isbn ignored", "", map[string]string{"2": "ab 10 Jahren"}, NoAgeRating},
		{"blank override falls through", "ab 6 Jahren", map[string]string{"1": ""}, "ab 6 Jahren"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeRating("1", tt.catalog, tt.properAges); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestHeadingAndDescription(t *testing.T) {
	if got := Heading("Der Grüffelo", ""); got != "Der Grüffelo" {
		t.Errorf("Unexpected heading without subtitle: %q", got)
	}
	if got := Heading("Der Grüffelo", "Das Bilderbuch"); got != "Der Grüffelo. Das Bilderbuch" {
		t.Errorf("Unexpected heading with subtitle: %q", got)
	}
	if got := Description(nil); got != "" {
		t.Errorf("Expected empty description, got %q", got)
	}
	if got := Description([]string{"Eins.", "Zwei."}); got != "Eins.\nZwei." {
		t.Errorf("Unexpected description: %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Der Grüffelo", "der-grueffelo"},
		{"Straße & Söhne!", "strasse-soehne"},
		{"  Élan, Café -- Crème  ", "elan-cafe-creme"},
		{"ÄRGER im Ölhafen", "aerger-im-oelhafen"},
		{"1, 2, 3 – los!", "1-2-3-los"},
		{"???", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slug(tt.title); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAuthorDisplayAndSortKey(t *testing.T) {
	got := AuthorDisplay([]string{"Donaldson, Julia", "Scheffler, Axel"})
	if got != "Julia Donaldson & Axel Scheffler" {
		t.Errorf("Unexpected display: %q", got)
	}

	got = AuthorDisplay([]string{"Donaldson, Julia; Scheffler, Axel"})
	if got != "Julia Donaldson & Axel Scheffler" {
		t.Errorf("Unexpected display for combined field: %q", got)
	}

	if key := SortKey("", []string{"Donaldson, Julia"}); key != "Donaldson, Julia" {
		t.Errorf("Expected catalog fallback sort key, got %q", key)
	}
	if key := SortKey("Ende, Michael", []string{"Donaldson, Julia"}); key != "Ende, Michael" {
		t.Errorf("Expected row sort key, got %q", key)
	}
}

func TestParticipants(t *testing.T) {
	book := models.BibliographicRecord{
		Kind: models.KindBook,
		Participants: map[string][]string{
			models.RoleTranslator:  {"Muster, Ben", "Probe, Cleo"},
			models.RoleIllustrator: {"Beispiel, Anna"},
			models.RoleNarrator:    {"Ignored, Ivan"},
		},
	}
	want := "Illustration: Anna Beispiel. Übersetzung: Ben Muster & Cleo Probe."
	if got := Participants(book); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	media := models.BibliographicRecord{
		Kind:         models.KindMedia,
		Participants: map[string][]string{models.RoleNarrator: {"Sprecherin, Sara"}},
	}
	if got := Participants(media); got != "Gelesen von: Sara Sprecherin." {
		t.Errorf("Unexpected media participants: %q", got)
	}

	if got := Participants(models.BibliographicRecord{Kind: models.KindBook}); got != "" {
		t.Errorf("Expected empty participants, got %q", got)
	}
}

func TestPrice(t *testing.T) {
	if got := Price(decimal.RequireFromString("12.9")); got != "12,90 €" {
		t.Errorf("Unexpected price: %q", got)
	}
	if got := Price(decimal.Zero); got != "" {
		t.Errorf("Expected empty price, got %q", got)
	}
}

func TestIsImproperAgeRating(t *testing.T) {
	for age, want := range map[string]bool{
		"":                   true,
		"Keine Altersangabe": true,
		"ab 4 bis 6 Jahre":   true,
		"ab 6 Jahren":        false,
	} {
		if got := IsImproperAgeRating(age); got != want {
			t.Errorf("IsImproperAgeRating(%q) = %v, want %v", age, got, want)
		}
	}
}
