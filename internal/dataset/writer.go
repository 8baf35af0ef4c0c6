package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
)

// EncodeJSON writes records as an indented JSON array without HTML escaping
func EncodeJSON(w io.Writer, records []*Record) error {
	if records == nil {
		records = []*Record{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

// EncodeCSV writes header and one line per record, values in header order
func EncodeCSV(w io.Writer, header []string, records []*Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	line := make([]string, len(header))
	for _, record := range records {
		for i, column := range header {
			line[i] = record.Get(column)
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write csv line: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteJSON atomically replaces path with the JSON encoding of records
func WriteJSON(path string, records []*Record) error {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, records); err != nil {
		return err
	}
	if err := fsutil.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	slog.Debug("Wrote JSON dataset", "path", path, "records", len(records))
	return nil
}

// WriteCSV atomically replaces path with the CSV encoding of records
func WriteCSV(path string, header []string, records []*Record) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, header, records); err != nil {
		return err
	}
	if err := fsutil.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	slog.Debug("Wrote CSV dataset", "path", path, "records", len(records))
	return nil
}

// Records turns the rows of a table into records in header order
func (t *Table) Records() []*Record {
	records := make([]*Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := NewRecord()
		for _, column := range t.Header {
			record.Set(column, row.Values[column])
		}
		records = append(records, record)
	}
	return records
}

// Convert reads any supported source file and writes it as a JSON source file
func Convert(src, dst string) (int, error) {
	table, err := Load(src)
	if err != nil {
		return 0, err
	}

	if err := WriteJSON(dst, table.Records()); err != nil {
		return 0, err
	}

	slog.Info("Converted source file", "from", src, "to", dst, "rows", len(table.Rows))
	return len(table.Rows), nil
}
