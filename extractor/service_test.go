package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/extractor/source"
	"github.com/aqlanhadi/txnrecon/extractor/text"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementCSV = `HBL Account Statement
Date,Narration,Withdrawal,Deposit,Balance
01-02-2025,KFC Gulberg Lahore,"1,250.00",,"10,000.00"
02-02-2025,Salary for January,,"85,000.00","95,000.00"
03-02-2025,Uber trip to airport,900,,"94,100.00"
`

type stubLoader struct {
	name string
	doc  *source.Document
	err  error
}

func (l *stubLoader) Name() string                 { return l.name }
func (l *stubLoader) Accepts(filename string) bool { return source.FormatOf(filename) == source.FormatPDF }
func (l *stubLoader) Load(context.Context, string, []byte) (*source.Document, error) {
	return l.doc, l.err
}

func newTestService(loaders ...source.Loader) *Service {
	reg := NewRegistry().RegisterStrategy(NewRegexStrategy(text.Options{}))
	for _, l := range loaders {
		reg.RegisterLoader(l)
	}
	reg.RegisterLoader(source.NewCSVLoader())
	return NewService(reg, newTestPipeline(reg.Strategies()...), 0)
}

func TestProcessReader_CSV(t *testing.T) {
	svc := newTestService()

	doc, err := svc.ProcessReader(context.Background(), strings.NewReader(statementCSV), "feb.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "HBL", doc.BankName)
	assert.Equal(t, source.FormatCSV, doc.Format)
	assert.Equal(t, StrategyTable, doc.Strategy)
	assert.Len(t, doc.ContentHash, 64)
	require.Len(t, doc.Transactions, 3)
	assert.Equal(t, common.Food, doc.Transactions[0].Category)
	assert.Equal(t, common.Income, doc.Transactions[1].Type)
	assert.Equal(t, common.Transport, doc.Transactions[2].Category)
}

func TestProcessReader_LoaderFallback(t *testing.T) {
	empty := &stubLoader{name: "pdf", doc: &source.Document{Format: source.FormatPDF, PageCount: 2}}
	ocr := &stubLoader{name: "ocr", doc: &source.Document{
		Format:    source.FormatPDF,
		PageCount: 2,
		Text:      "Meezan Bank\n15-08-2025 Grocery Store Purchase 1,500.00 25,000.00",
	}}
	svc := newTestService(empty, ocr)

	doc, err := svc.ProcessReader(context.Background(), strings.NewReader("%PDF"), "scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, "regex", doc.Strategy)
	assert.Equal(t, "Meezan Bank", doc.BankName)
	require.Len(t, doc.Transactions, 1)
}

func TestProcessReader_EmptyDocumentIsUnusable(t *testing.T) {
	empty := &stubLoader{name: "pdf", doc: &source.Document{Format: source.FormatPDF, PageCount: 1}}
	svc := newTestService(empty)

	_, err := svc.ProcessReader(context.Background(), strings.NewReader("%PDF"), "scan.pdf")
	assert.True(t, errors.Is(err, ErrUnusableInput))
}

func TestProcessReader_Formats(t *testing.T) {
	svc := newTestService()

	_, err := svc.ProcessReader(context.Background(), strings.NewReader("x"), "notes.txt")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = svc.ProcessReader(context.Background(), strings.NewReader("x"), "scan.png")
	assert.True(t, errors.Is(err, ErrNoLoader))
}

func TestProcessReader_LoaderError(t *testing.T) {
	broken := &stubLoader{name: "pdf", err: errors.New("malformed pdf")}
	svc := newTestService(broken)

	_, err := svc.ProcessReader(context.Background(), strings.NewReader("x"), "a.pdf")
	assert.EqualError(t, err, "malformed pdf")
}

func TestExtractText(t *testing.T) {
	svc := newTestService()

	doc, err := svc.ExtractText(context.Background(), strings.NewReader(statementCSV), "feb.csv")
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Salary for January")

	_, err = svc.ExtractText(context.Background(), strings.NewReader("  "), "blank.csv")
	assert.True(t, errors.Is(err, ErrUnusableInput))
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry().
		RegisterLoader(source.NewPDFLoader(0)).
		RegisterLoader(source.NewCSVLoader()).
		RegisterStrategy(NewRegexStrategy(text.Options{}))

	assert.Equal(t, []string{"pdf", "csv"}, reg.LoaderNames())
	assert.Equal(t, []string{"regex"}, reg.StrategyNames())
	assert.True(t, reg.Supports("x.PDF"))
	assert.False(t, reg.Supports("x.xlsx"))
}

func sampleDocument() *Document {
	return &Document{
		ID:       "doc-1",
		Filename: "test_statement.pdf",
		BankName: "UBL",
		Strategy: StrategyTable,
		RawText:  "raw",
		Transactions: []common.Transaction{
			{Description: "Salary for January", Amount: 75.25, Type: common.Income, Category: common.Other},
			{Description: "KFC Gulberg", Amount: 25, Type: common.Expense, Category: common.Food},
		},
		DetectedPeriod: &common.DetectedPeriod{Month: "February", Year: 2025},
	}
}

func TestCreateFinalOutput_TransactionOnly(t *testing.T) {
	result := CreateFinalOutput(sampleDocument(), true, false)

	transactions, ok := result.([]common.Transaction)
	if !ok {
		t.Fatal("Expected result to be []common.Transaction")
	}
	if len(transactions) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(transactions))
	}

	empty := CreateFinalOutput(&Document{}, true, false)
	assert.Equal(t, []common.Transaction{}, empty)
}

func TestCreateFinalOutput_PeriodOnly(t *testing.T) {
	result := CreateFinalOutput(sampleDocument(), false, true)

	outputMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatal("Expected result to be map[string]interface{}")
	}
	if outputMap["filename"] != "test_statement.pdf" {
		t.Errorf("Expected filename 'test_statement.pdf', got '%v'", outputMap["filename"])
	}
	if _, exists := outputMap["transactions"]; exists {
		t.Error("Expected no transactions in period-only output")
	}
	assert.Equal(t, 2, outputMap["transaction_count"])
	assert.NotNil(t, outputMap["detected_period"])
}

func TestCreateFinalOutput_IncludesTotals(t *testing.T) {
	result := CreateFinalOutput(sampleDocument(), false, false)

	outputMap, ok := result.(map[string]interface{})
	if !ok {
		t.Fatal("Expected result to be map[string]interface{}")
	}
	for _, field := range []string{"total_income", "total_expense", "nett", "transactions", "raw_text", "strategy"} {
		if _, exists := outputMap[field]; !exists {
			t.Errorf("Expected field '%s' in output", field)
		}
	}
	assert.Equal(t, "75.25", outputMap["total_income"])
	assert.Equal(t, "25.00", outputMap["total_expense"])
	assert.Equal(t, "50.25", outputMap["nett"])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []*Document{sampleDocument()}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "file,date,description,amount,type,category", lines[0])
	assert.Contains(t, lines[2], "KFC Gulberg")
}

func TestExecuteAgainstPath_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte(statementCSV), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("nothing useful here\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("ignored"), 0o600))

	var buf bytes.Buffer
	err := ExecuteAgainstPath(context.Background(), newTestService(), dir, &buf, OutputOptions{Format: FormatJSON})
	require.NoError(t, err)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "a.csv", out[0]["filename"])
}

func TestExecuteAgainstPath_SingleFileNoTransactions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.csv")
	require.NoError(t, os.WriteFile(path, []byte("nothing useful here\n"), 0o600))

	var buf bytes.Buffer
	require.NoError(t, ExecuteAgainstPath(context.Background(), newTestService(), path, &buf, OutputOptions{}))
	assert.Equal(t, "{}\n", buf.String())
}

func TestExecuteAgainstPath_CSVOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte(statementCSV), 0o600))

	var buf bytes.Buffer
	require.NoError(t, ExecuteAgainstPath(context.Background(), newTestService(), path, &buf, OutputOptions{Format: FormatCSV}))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 4)
}

func TestDetectBank(t *testing.T) {
	assert.Equal(t, "Habib Bank", DetectBank("Habib Bank Limited statement"))
	assert.Equal(t, "UBL", DetectBank("ubl digital"))
	assert.Equal(t, "Meezan Bank", DetectBank("MEEZAN BANK LTD"))
	assert.Equal(t, UnknownBank, DetectBank("SBIX holdings"))
	assert.Equal(t, UnknownBank, DetectBank(""))
}

func TestOptionsFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.SetConfigType("yaml")
	require.NoError(t, viper.ReadConfig(bytes.NewBufferString(`
extraction:
  amount_ceiling: 5000
  description_limit: 60
  text_transaction_limit: 10
  strict_text_descriptions: true
`)))

	opts := OptionsFromViper()
	assert.Equal(t, 5000.0, opts.AmountCeiling)
	assert.Equal(t, 60, opts.DescriptionLimit)
	assert.Equal(t, 30, opts.DedupPrefix)

	textOpts := TextOptionsFromViper()
	assert.Equal(t, 10, textOpts.Limit)
	assert.True(t, textOpts.Strict)
}
