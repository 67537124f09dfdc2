// Package source turns uploaded files into text and table rows.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
)

const (
	FormatPDF   = "pdf"
	FormatCSV   = "csv"
	FormatXLSX  = "xlsx"
	FormatImage = "image"
)

var imageExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true, "bmp": true, "webp": true,
}

// Document is what a loader could read out of one file.
type Document struct {
	Filename  string
	Format    string
	Text      string
	Rows      []common.RawRow
	PageCount int
}

// Empty reports whether the document carries nothing to extract from.
func (d *Document) Empty() bool {
	return d == nil || (len(d.Rows) == 0 && strings.TrimSpace(d.Text) == "")
}

type Loader interface {
	Name() string
	Accepts(filename string) bool
	Load(ctx context.Context, filename string, data []byte) (*Document, error)
}

// Extension returns the lower-case extension without the dot.
func Extension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// FormatOf maps a filename onto one of the known formats, or "".
func FormatOf(filename string) string {
	ext := Extension(filename)
	switch {
	case ext == "pdf":
		return FormatPDF
	case ext == "csv":
		return FormatCSV
	case ext == "xlsx":
		return FormatXLSX
	case imageExtensions[ext]:
		return FormatImage
	}
	return ""
}

// PageMarker separates pages in multi-page text.
func PageMarker(page, total int) string {
	return fmt.Sprintf("--- PAGE %d of %d ---", page, total)
}

func joinPages(pages []string) string {
	if len(pages) == 1 {
		return pages[0]
	}
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PageMarker(i+1, len(pages)))
		b.WriteString("\n")
		b.WriteString(page)
	}
	return b.String()
}

// rowsText renders rows one per line, cells separated by single spaces.
func rowsText(rows []common.RawRow) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		line := common.CollapseSpaces(strings.Join(row, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
