// Package derive computes the print-layout texts of a catalog record.
//
// Everything here is pure: the same record and overrides always produce the
// same strings, which keeps pipeline output byte-identical across runs.
package derive

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NoAgeRating is printed when neither the catalog nor an override supplies an age rating
const NoAgeRating = "Keine Altersangabe"

// Derive computes all derived fields for a record
func Derive(record models.BibliographicRecord, properAges map[string]string) models.DerivedFields {
	age := AgeRating(record.ISBN, record.AgeRating, properAges)

	return models.DerivedFields{
		Heading:      Heading(record.Title, record.Subtitle),
		Description:  Description(record.Description),
		Participants: Participants(record),
		Information:  Information(record),
		Closing:      Closing(record, age),
		AgeRating:    age,
		CoverSlug:    Slug(record.Title),
		Price:        Price(record.RetailPrice),
	}
}

// Heading appends the subtitle to the title, separated by ". "
func Heading(title, subtitle string) string {
	subtitle = strings.TrimSpace(subtitle)
	if subtitle == "" {
		return title
	}
	return title + ". " + subtitle
}

// Description joins description paragraphs with newlines
func Description(paragraphs []string) string {
	return strings.Join(paragraphs, "\n")
}

// Information builds the publication sentence, e.g.
// "2024 im Beispiel Verlag erschienen; Hardcover und 32 Seiten stark."
func Information(record models.BibliographicRecord) string {
	preposition := "bei"
	if strings.Contains(strings.ToLower(record.Publisher), "verlag") {
		preposition = "im"
	}

	info := joinNonEmpty(" ", record.ReleaseYear, preposition, record.Publisher, "erschienen")

	switch record.Kind {
	case models.KindBook:
		pages := ""
		if record.PageCount > 0 {
			pages = strconv.Itoa(record.PageCount) + " Seiten stark"
		}
		switch {
		case record.Binding != "" && pages != "":
			return info + "; " + record.Binding + " und " + pages + "."
		case record.Binding != "":
			return info + "; " + sentenceEnd(record.Binding)
		case pages != "":
			return info + "; " + pages + "."
		}
	case models.KindMedia:
		if record.Duration != "" {
			return info + "; " + sentenceEnd(record.Duration)
		}
	case models.KindCalendar:
		if record.Dimensions != "" {
			return info + " und " + record.Dimensions + " groß."
		}
	}

	return sentenceEnd(info)
}

// sentenceEnd terminates s with exactly one period
func sentenceEnd(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".") + "."
}

// AgeRating resolves the printed age rating: override, then catalog value, then NoAgeRating
func AgeRating(isbn, catalogRating string, properAges map[string]string) string {
	if age, ok := properAges[isbn]; ok && strings.TrimSpace(age) != "" {
		return strings.TrimSpace(age)
	}
	if age := strings.TrimSpace(catalogRating); age != "" {
		return age
	}
	return NoAgeRating
}

// Closing builds the last line of an entry. Calendars carry no age rating.
func Closing(record models.BibliographicRecord, ageRating string) string {
	if record.Kind == models.KindCalendar {
		return record.ISBN
	}
	if ageRating == "" {
		ageRating = NoAgeRating
	}
	return record.ISBN + " - " + ageRating
}

// IsImproperAgeRating reports whether a catalog age rating needs manual review
func IsImproperAgeRating(age string) bool {
	age = strings.TrimSpace(age)
	return age == "" || strings.Contains(age, "angabe") || strings.Contains(age, "bis")
}

var germanFolds = strings.NewReplacer(
	"Ä", "Ae", "ä", "ae",
	"Ö", "Oe", "ö", "oe",
	"Ü", "Ue", "ü", "ue",
	"ß", "ss",
)

// Slug turns a title into a lower-case, ASCII, dash separated file name
func Slug(title string) string {
	folded := germanFolds.Replace(title)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, folded); err == nil {
		folded = out
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// AuthorDisplay turns "Last, First" names into "First Last", joined with " & "
func AuthorDisplay(authors []string) string {
	var names []string
	for _, author := range authors {
		for _, name := range strings.Split(author, ";") {
			if name = swapName(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return strings.Join(names, " & ")
}

// SortKey returns the row supplied sort key, falling back to the catalog's authors
func SortKey(rowAuthor string, authors []string) string {
	if key := strings.TrimSpace(rowAuthor); key != "" {
		return key
	}
	return strings.Join(authors, "; ")
}

func swapName(name string) string {
	parts := strings.Split(strings.TrimSpace(name), ",")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return joinNonEmpty(" ", parts...)
}

// Price formats a retail price the German way, e.g. "12,95 €"
func Price(price decimal.Decimal) string {
	if price.IsZero() {
		return ""
	}
	return strings.Replace(price.StringFixed(2), ".", ",", 1) + " €"
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
