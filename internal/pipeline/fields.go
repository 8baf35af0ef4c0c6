package pipeline

import (
	"github.com/lehigh-university-libraries/booklist/internal/dataset"
	"github.com/lehigh-university-libraries/booklist/internal/images"
	"github.com/lehigh-university-libraries/booklist/internal/models"
)

// Output columns read by the layout templates
const (
	FieldISBN         = "ISBN"
	FieldSortKey      = "Sortierung"
	FieldAuthors      = "AutorInnen"
	FieldTitle        = "Titel"
	FieldSubtitle     = "Untertitel"
	FieldHeading      = "Kopfleiste"
	FieldPublisher    = "Verlag"
	FieldPrice        = "Preis"
	FieldYear         = "Erscheinungsjahr"
	FieldAgeRating    = "Altersempfehlung"
	FieldDescription  = "Inhaltsbeschreibung"
	FieldParticipants = "Mitwirkende"
	FieldInformation  = "Informationen"
	FieldClosing      = "Abschluss"
	FieldCover        = "@Cover"
)

// Columns is the fixed leading column order of every category dataset
var Columns = []string{
	FieldISBN,
	FieldSortKey,
	FieldAuthors,
	FieldTitle,
	FieldSubtitle,
	FieldHeading,
	FieldPublisher,
	FieldPrice,
	FieldYear,
	FieldAgeRating,
	FieldDescription,
	FieldParticipants,
	FieldInformation,
	FieldClosing,
	FieldCover,
}

var fixedColumns = func() map[string]bool {
	m := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		m[c] = true
	}
	return m
}()

// Header returns Columns followed by the source columns that are not part
// of it, in source order
func Header(sourceHeader []string) []string {
	header := append([]string(nil), Columns...)
	for _, column := range sourceHeader {
		if !fixedColumns[column] {
			header = append(header, column)
		}
	}
	return header
}

// Merge builds the output record of one row. Catalog and derived values
// take precedence over source columns of the same name.
func Merge(row dataset.Row, sourceHeader []string, record models.BibliographicRecord, derived models.DerivedFields) *dataset.Record {
	out := dataset.NewRecord()

	out.Set(FieldISBN, record.ISBN)
	out.Set(FieldSortKey, record.AuthorSortKey)
	out.Set(FieldAuthors, record.AuthorDisplay)
	out.Set(FieldTitle, record.Title)
	out.Set(FieldSubtitle, record.Subtitle)
	out.Set(FieldHeading, derived.Heading)
	out.Set(FieldPublisher, record.Publisher)
	out.Set(FieldPrice, derived.Price)
	out.Set(FieldYear, record.ReleaseYear)
	out.Set(FieldAgeRating, derived.AgeRating)
	out.Set(FieldDescription, derived.Description)
	out.Set(FieldParticipants, derived.Participants)
	out.Set(FieldInformation, derived.Information)
	out.Set(FieldClosing, derived.Closing)
	out.Set(FieldCover, coverReference(derived.CoverSlug))

	for _, column := range sourceHeader {
		if !out.Has(column) {
			out.Set(column, row.Values[column])
		}
	}

	return out
}

func coverReference(slug string) string {
	if slug == "" {
		return ""
	}
	return images.CoverFileName(slug)
}
