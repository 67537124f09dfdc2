package source

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/dslipak/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatOf(t *testing.T) {
	cases := map[string]string{
		"statement.PDF": FormatPDF,
		"export.csv":    FormatCSV,
		"book.xlsx":     FormatXLSX,
		"scan.jpeg":     FormatImage,
		"notes.txt":     "",
		"noext":         "",
	}
	for name, want := range cases {
		if got := FormatOf(name); got != want {
			t.Errorf("Expected format %q for %s, got %q", want, name, got)
		}
	}
}

func TestCSVLoader_UTF8(t *testing.T) {
	data := []byte("\xef\xbb\xbfDate,Description,Debit,Credit\n01-02-2025,Grocery Mart,500,\n,continued text\n")

	doc, err := NewCSVLoader().Load(context.Background(), "export.csv", data)
	require.NoError(t, err)

	require.Len(t, doc.Rows, 3)
	assert.Equal(t, common.RawRow{"Date", "Description", "Debit", "Credit"}, doc.Rows[0])
	assert.Equal(t, common.RawRow{"", "continued text"}, doc.Rows[2])
	assert.True(t, strings.HasPrefix(doc.Text, "Date,Description"))
	assert.Equal(t, FormatCSV, doc.Format)
}

func TestCSVLoader_Latin1(t *testing.T) {
	data := []byte("01-02-2025,Caf\xe9 Lahore,500\n")

	doc, err := NewCSVLoader().Load(context.Background(), "export.csv", data)
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "Café Lahore", doc.Rows[0][1])
}

func TestXLSXLoader_AllSheets(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Date", "Description", "Debit"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"01-02-2025", "Grocery Mart", "500"}))
	_, err := f.NewSheet("March")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("March", "A1", &[]interface{}{"02-03-2025", "Uber trip", "900"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := NewXLSXLoader().Load(context.Background(), "book.xlsx", buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, 2, doc.PageCount)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, common.RawRow{"02-03-2025", "Uber trip", "900"}, doc.Rows[2])
	assert.Contains(t, doc.Text, PageMarker(2, 2))
	assert.Contains(t, doc.Text, "01-02-2025 Grocery Mart 500")
}

func TestXLSXLoader_Garbage(t *testing.T) {
	_, err := NewXLSXLoader().Load(context.Background(), "book.xlsx", []byte("not a workbook"))
	assert.Error(t, err)
}

func TestPDFLoader_SplitCells(t *testing.T) {
	l := NewPDFLoader(10)
	row := []pdf.Text{
		{X: 10, W: 40, S: "01-02-2025"},
		{X: 70, W: 30, S: "Grocery"},
		{X: 102, W: 20, S: "Mart"},
		{X: 200, W: 20, S: "500"},
	}

	assert.Equal(t, common.RawRow{"01-02-2025", "Grocery Mart", "500"}, l.splitCells(row))
	assert.Empty(t, l.splitCells(nil))
}

func TestPDFLoader_Malformed(t *testing.T) {
	_, err := NewPDFLoader(0).Load(context.Background(), "broken.pdf", []byte("%PDF-1.4 garbage"))
	assert.Error(t, err)
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "only", joinPages([]string{"only"}))
	assert.Equal(t, "--- PAGE 1 of 2 ---\na\n\n--- PAGE 2 of 2 ---\nb", joinPages([]string{"a", "b"}))
}

func TestOCRLoader_ContinuesPastFailedPages(t *testing.T) {
	var progress []int
	l := NewOCRLoader(0, "")
	l.Progress = func(page, total int) {
		progress = append(progress, page)
		assert.Equal(t, 3, total)
	}
	l.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		switch name {
		case "pdftoppm":
			assert.Contains(t, args, "300")
			prefix := args[len(args)-1]
			for _, n := range []string{"1", "2", "3"} {
				require.NoError(t, os.WriteFile(prefix+"-"+n+".png", []byte("img"), 0o600))
			}
			return nil, nil
		case "tesseract":
			assert.Contains(t, args, "eng")
			if strings.HasSuffix(args[0], "-2.png") {
				return []byte("bad image"), errors.New("exit status 1")
			}
			return []byte("text of " + args[0][len(args[0])-5:]), nil
		}
		return nil, errors.New("unexpected command " + name)
	}

	doc, err := l.Load(context.Background(), "scan.pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, progress)
	assert.Equal(t, 3, doc.PageCount)
	assert.Equal(t, FormatPDF, doc.Format)
	assert.Contains(t, doc.Text, "text of 1.png")
	assert.Contains(t, doc.Text, "text of 3.png")
	assert.NotContains(t, doc.Text, "bad image")
}

func TestOCRLoader_Image(t *testing.T) {
	l := NewOCRLoader(200, "eng")
	l.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		require.Equal(t, "tesseract", name)
		return []byte("  Grocery Mart 500  \n"), nil
	}

	doc, err := l.Load(context.Background(), "scan.png", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "Grocery Mart 500", doc.Text)
	assert.Equal(t, FormatImage, doc.Format)
}

func TestOCRLoader_NoText(t *testing.T) {
	l := NewOCRLoader(0, "")
	l.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("   "), nil
	}

	_, err := l.Load(context.Background(), "scan.png", []byte("png"))
	assert.True(t, errors.Is(err, ErrOCRNoText))
}
