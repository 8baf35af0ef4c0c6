package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/booklist/internal/derive"
	"github.com/lehigh-university-libraries/booklist/internal/models"
	"github.com/shopspring/decimal"
)

// ErrMalformedPayload is returned when a catalog payload cannot be used
var ErrMalformedPayload = errors.New("malformed catalog payload")

// Product is the catalog's JSON representation of one title
type Product struct {
	ISBN         string              `json:"isbn"`
	Title        string              `json:"title"`
	Subtitle     string              `json:"subtitle,omitempty"`
	Authors      []string            `json:"authors,omitempty"`
	Publisher    string              `json:"publisher"`
	ReleaseYear  json.Number         `json:"release_year,omitempty"`
	RetailPrice  json.Number         `json:"retail_price,omitempty"`
	Binding      string              `json:"binding,omitempty"`
	Type         string              `json:"type"`
	Pages        int                 `json:"pages,omitempty"`
	Duration     string              `json:"duration,omitempty"`
	Dimensions   string              `json:"dimensions,omitempty"`
	Age          string              `json:"age,omitempty"`
	Description  []string            `json:"description,omitempty"`
	Participants map[string][]string `json:"participants,omitempty"`
	CoverURL     string              `json:"cover_url,omitempty"`
}

// DecodeProduct parses a raw payload
func DecodeProduct(payload []byte) (*Product, error) {
	var product Product
	if err := json.Unmarshal(payload, &product); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &product, nil
}

// Normalize turns a Product into a BibliographicRecord. The requested ISBN is
// authoritative; the payload's own ISBN is only a consistency check.
func Normalize(isbn string, product *Product) (models.BibliographicRecord, error) {
	if product == nil {
		return models.BibliographicRecord{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}

	title := strings.TrimSpace(product.Title)
	if title == "" {
		return models.BibliographicRecord{}, fmt.Errorf("%w: missing title", ErrMalformedPayload)
	}

	if got := strings.ReplaceAll(product.ISBN, "-", ""); got != "" && got != isbn {
		return models.BibliographicRecord{}, fmt.Errorf("%w: payload is for ISBN %s", ErrMalformedPayload, product.ISBN)
	}

	price := decimal.Zero
	if product.RetailPrice != "" {
		p, err := decimal.NewFromString(product.RetailPrice.String())
		if err != nil {
			return models.BibliographicRecord{}, fmt.Errorf("%w: retail price %q", ErrMalformedPayload, product.RetailPrice)
		}
		price = p
	}

	var description []string
	for _, paragraph := range product.Description {
		if paragraph = strings.TrimSpace(paragraph); paragraph != "" {
			description = append(description, paragraph)
		}
	}

	return models.BibliographicRecord{
		ISBN:          isbn,
		Authors:       product.Authors,
		AuthorDisplay: derive.AuthorDisplay(product.Authors),
		AuthorSortKey: derive.SortKey("", product.Authors),
		Title:         title,
		Subtitle:      strings.TrimSpace(product.Subtitle),
		Publisher:     strings.TrimSpace(product.Publisher),
		ReleaseYear:   product.ReleaseYear.String(),
		RetailPrice:   price,
		Binding:       strings.TrimSpace(product.Binding),
		Kind:          models.ParseKind(strings.ToLower(strings.TrimSpace(product.Type))),
		PageCount:     product.Pages,
		Duration:      strings.TrimSpace(product.Duration),
		Dimensions:    strings.TrimSpace(product.Dimensions),
		AgeRating:     strings.TrimSpace(product.Age),
		Description:   description,
		Participants:  product.Participants,
		CoverURL:      product.CoverURL,
	}, nil
}
