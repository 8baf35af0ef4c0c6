// Package dataset reads category source files and writes the finished
// category datasets.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// SupportedExtensions lists the source formats Load understands
var SupportedExtensions = []string{".json", ".csv", ".xlsx", ".parquet"}

// Load reads a source file, detecting the format from its extension
func Load(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		table *Table
		err   error
	)
	switch ext {
	case ".json":
		table, err = loadJSON(path)
	case ".csv":
		table, err = loadCSV(path)
	case ".xlsx":
		table, err = loadXLSX(path)
	case ".parquet":
		table, err = loadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: %s)", ext, strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded source file", "path", path, "rows", len(table.Rows), "columns", len(table.Header))
	return table, nil
}

// loadJSON reads an array of objects, keeping the key order of the file
func loadJSON(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	table := &Table{}
	columns := make(map[string]bool)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("failed to parse %s at row %d: %w", path, len(table.Rows)+1, err)
		}

		row := Row{Number: len(table.Rows) + 1, Values: make(map[string]string)}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s at row %d: %w", path, row.Number, err)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("failed to parse %s at row %d: unexpected token %v", path, row.Number, tok)
			}

			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("failed to parse %s at row %d: %w", path, row.Number, err)
			}

			row.Values[key] = stringify(value)
			table.addColumn(columns, key)
		}

		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("failed to parse %s at row %d: %w", path, row.Number, err)
		}
		table.Rows = append(table.Rows, row)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return table, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}

// loadCSV reads a wholesaler export. The delimiter is sniffed from the first
// line and Latin-1 input is converted to UTF-8.
func loadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		slog.Debug("Decoding source file as ISO-8859-1", "path", path)
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		records = append(records, record)
	}

	return tableFromRecords(records), nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) >= bytes.Count(line, []byte(",")) && bytes.Contains(line, []byte(";")) {
		return ';'
	}
	return ','
}

// loadXLSX reads the first sheet; its first row is the header
func loadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return tableFromRecords(records), nil
}

// tableFromRecords uses the first record as header when it names an ISBN
// column and falls back to WholesalerHeader otherwise
func tableFromRecords(records [][]string) *Table {
	header := WholesalerHeader
	if len(records) > 0 && hasISBNColumn(records[0]) {
		header = make([]string, len(records[0]))
		for i, column := range records[0] {
			header[i] = strings.TrimSpace(column)
		}
		records = records[1:]
	}

	table := &Table{}
	columns := make(map[string]bool)
	for _, column := range header {
		if column != "" {
			table.addColumn(columns, column)
		}
	}

	for _, record := range records {
		if isBlank(record) {
			continue
		}
		row := Row{Number: len(table.Rows) + 1, Values: make(map[string]string, len(header))}
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row.Values[header[i]] = value
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

func hasISBNColumn(record []string) bool {
	for _, column := range record {
		if strings.EqualFold(strings.TrimSpace(column), ColumnISBN) {
			return true
		}
	}
	return false
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// wholesalerRow is the Parquet schema of a wholesaler export
type wholesalerRow struct {
	AutorIn       string `parquet:"AutorIn,optional"`
	Titel         string `parquet:"Titel,optional"`
	Verlag        string `parquet:"Verlag,optional"`
	ISBN          string `parquet:"ISBN,optional"`
	Einband       string `parquet:"Einband,optional"`
	Preis         string `parquet:"Preis,optional"`
	Meldenummer   string `parquet:"Meldenummer,optional"`
	SortRabatt    string `parquet:"SortRabatt,optional"`
	Gewicht       string `parquet:"Gewicht,optional"`
	Informationen string `parquet:"Informationen,optional"`
	Zusatz        string `parquet:"Zusatz,optional"`
	Kommentar     string `parquet:"Kommentar,optional"`
}

func (w wholesalerRow) values() []string {
	return []string{
		w.AutorIn, w.Titel, w.Verlag, w.ISBN, w.Einband, w.Preis,
		w.Meldenummer, w.SortRabatt, w.Gewicht, w.Informationen, w.Zusatz, w.Kommentar,
	}
}

// loadParquet reads a wholesaler export stored as Parquet
func loadParquet(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[wholesalerRow](pf)
	defer reader.Close()

	records := [][]string{}
	rows := make([]wholesalerRow, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			records = append(records, row.values())
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return tableFromRecords(records), nil
}
