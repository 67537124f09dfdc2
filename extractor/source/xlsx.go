package source

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/xuri/excelize/v2"
)

// XLSXLoader reads every sheet in workbook order.
type XLSXLoader struct{}

func NewXLSXLoader() *XLSXLoader {
	return &XLSXLoader{}
}

func (l *XLSXLoader) Name() string {
	return "xlsx"
}

func (l *XLSXLoader) Accepts(filename string) bool {
	return FormatOf(filename) == FormatXLSX
}

func (l *XLSXLoader) Load(_ context.Context, filename string, data []byte) (*Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file %s: %w", filename, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	doc := &Document{Filename: filename, Format: FormatXLSX, PageCount: len(sheets)}
	pages := make([]string, 0, len(sheets))

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		sheetRows := make([]common.RawRow, 0, len(rows))
		for _, row := range rows {
			sheetRows = append(sheetRows, common.RawRow(row))
		}
		doc.Rows = append(doc.Rows, sheetRows...)
		if text := rowsText(sheetRows); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) > 0 {
		doc.Text = joinPages(pages)
	}
	return doc, nil
}
