package dataset

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Well-known source columns
const (
	ColumnISBN   = "ISBN"
	ColumnAuthor = "AutorIn"
)

// WholesalerHeader is assumed for exports that come without a header line
var WholesalerHeader = []string{
	"AutorIn", "Titel", "Verlag", "ISBN", "Einband", "Preis",
	"Meldenummer", "SortRabatt", "Gewicht", "Informationen", "Zusatz", "Kommentar",
}

// ErrMalformedRow is returned for rows lacking a required field
var ErrMalformedRow = errors.New("malformed row")

// Table is a parsed source file
type Table struct {
	// Header lists the columns in source order
	Header []string
	Rows   []Row
}

// Row is one source row
type Row struct {
	// Number is the 1-based position of the row among the data rows
	Number int
	Values map[string]string
}

// Get returns the trimmed value of a column
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// ISBN returns the row's ISBN without separators
func (r Row) ISBN() string {
	return NormalizeISBN(r.Values[ColumnISBN])
}

// Validate checks the required columns
func (r Row) Validate() error {
	err := validation.Validate(r.ISBN(), validation.Required.Error("ISBN is required"))
	if err != nil {
		return fmt.Errorf("%w %d: %v", ErrMalformedRow, r.Number, err)
	}
	return nil
}

// NormalizeISBN strips whitespace and hyphens
func NormalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '\t' || r == '\u00a0' {
			return -1
		}
		return r
	}, strings.TrimSpace(isbn))
}

// ISBNs returns the valid ISBNs of the table in row order
func (t *Table) ISBNs() []string {
	isbns := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if isbn := row.ISBN(); isbn != "" {
			isbns = append(isbns, isbn)
		}
	}
	return isbns
}

func (t *Table) addColumn(seen map[string]bool, column string) {
	if seen[column] {
		return
	}
	seen[column] = true
	t.Header = append(t.Header, column)
}
