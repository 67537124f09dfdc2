package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/charmap"
)

type CSVLoader struct{}

func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

func (l *CSVLoader) Name() string {
	return "csv"
}

func (l *CSVLoader) Accepts(filename string) bool {
	return FormatOf(filename) == FormatCSV
}

// Load reads every record as a row. Content that is not valid UTF-8 is
// decoded as Latin-1.
func (l *CSVLoader) Load(_ context.Context, filename string, data []byte) (*Document, error) {
	content, err := decodeText(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	reader := gocsv.LazyCSVReader(strings.NewReader(content))
	if r, ok := reader.(*csv.Reader); ok {
		r.FieldsPerRecord = -1
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	doc := &Document{Filename: filename, Format: FormatCSV, PageCount: 1}
	for _, record := range records {
		doc.Rows = append(doc.Rows, common.RawRow(record))
	}
	doc.Text = strings.TrimSpace(content)
	return doc, nil
}

func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
