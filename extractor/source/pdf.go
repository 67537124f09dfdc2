package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/dslipak/pdf"
)

// DefaultCellGap is the horizontal distance, in points, that starts a new cell.
const DefaultCellGap = 15.0

// PDFLoader reads the text layer of a PDF. Scanned PDFs come back empty.
type PDFLoader struct {
	CellGap float64
}

func NewPDFLoader(cellGap float64) *PDFLoader {
	if cellGap <= 0 {
		cellGap = DefaultCellGap
	}
	return &PDFLoader{CellGap: cellGap}
}

func (l *PDFLoader) Name() string {
	return "pdf"
}

func (l *PDFLoader) Accepts(filename string) bool {
	return FormatOf(filename) == FormatPDF
}

func (l *PDFLoader) Load(ctx context.Context, filename string, data []byte) (doc *Document, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("reading %s: malformed pdf: %v", filename, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	log := logger.FromContext(ctx)
	numPages := r.NumPage()
	doc = &Document{Filename: filename, Format: FormatPDF, PageCount: numPages}
	pages := make([]string, 0, numPages)

	for no := 1; no <= numPages; no++ {
		page := r.Page(no)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			log.Warn().Err(err).Int("page", no).Str("file", filename).Msg("could not read page text")
			continue
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			cells := l.splitCells(row.Content)
			if len(cells) == 0 {
				continue
			}
			doc.Rows = append(doc.Rows, cells)
			lines = append(lines, strings.Join(cells, " "))
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}

	if len(pages) > 0 {
		doc.Text = joinPages(pages)
	}
	return doc, nil
}

// splitCells groups the text runs of one row into cells. A run that starts
// more than CellGap to the right of where the previous one ended opens a
// new cell.
func (l *PDFLoader) splitCells(content []pdf.Text) common.RawRow {
	var (
		cells   common.RawRow
		current strings.Builder
		lastEnd float64
	)
	flush := func() {
		if cell := common.CollapseSpaces(current.String()); cell != "" {
			cells = append(cells, cell)
		}
		current.Reset()
	}

	for i, text := range content {
		if i > 0 {
			if text.X-lastEnd > l.CellGap {
				flush()
			} else {
				current.WriteByte(' ')
			}
		}
		current.WriteString(text.S)
		lastEnd = text.X + text.W
	}
	flush()
	return cells
}
