package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInvalidDelimiter is returned for delimiters encoding/csv cannot write.
var ErrInvalidDelimiter = errors.New("invalid csv delimiter")

// CSVOptions tunes the CSV dialect.
type CSVOptions struct {
	// Delimiter defaults to a comma.
	Delimiter rune
	// ByteOrderMark prefixes the document with a UTF-8 BOM so spreadsheet tools detect the encoding.
	ByteOrderMark bool
}

// CSVExporter renders datasets as CSV documents.
type CSVExporter struct {
	delimiter rune
	bom       bool
}

// NewCSVExporter builds a CSV exporter. Zero options produce plain comma separated output.
func NewCSVExporter(opts CSVOptions) *CSVExporter {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	return &CSVExporter{delimiter: opts.Delimiter, bom: opts.ByteOrderMark}
}

// ParseDelimiter maps a configured delimiter to a rune. "tab" and "\t" select a tab.
func ParseDelimiter(raw string) (rune, error) {
	switch raw {
	case "":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(raw)
	if size != len(raw) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, raw)
	}
	return r, nil
}

// ContentType is the media type of rendered documents.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Render writes one record per row in header order. Missing cells render empty and
// line breaks inside a cell collapse to single spaces.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	writer := csv.NewWriter(buf)
	writer.Comma = e.delimiter
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(data.Headers))
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = flattenCell(row[header])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func flattenCell(value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return value
	}
	return strings.Join(strings.Fields(value), " ")
}
