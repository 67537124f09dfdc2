package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/logger"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

type OutputOptions struct {
	Format          string
	TransactionOnly bool
	PeriodOnly      bool
}

// Totals sums transaction amounts by direction.
type Totals struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
}

func (t Totals) Nett() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

func SumTransactions(txs []common.Transaction) Totals {
	totals := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type == common.Income {
			totals.Income = totals.Income.Add(amount)
		} else {
			totals.Expense = totals.Expense.Add(amount)
		}
	}
	return totals
}

// CreateFinalOutput shapes a document for printing or for an API response.
func CreateFinalOutput(doc *Document, transactionOnly bool, periodOnly bool) interface{} {
	if transactionOnly {
		if doc.Transactions == nil {
			return []common.Transaction{}
		}
		return doc.Transactions
	}

	totals := SumTransactions(doc.Transactions)
	output := map[string]interface{}{
		"id":                doc.ID,
		"filename":          doc.Filename,
		"format":            doc.Format,
		"page_count":        doc.PageCount,
		"bank_name":         doc.BankName,
		"detected_period":   doc.DetectedPeriod,
		"transaction_count": len(doc.Transactions),
		"total_income":      totals.Income.StringFixed(2),
		"total_expense":     totals.Expense.StringFixed(2),
		"nett":              totals.Nett().StringFixed(2),
	}
	if doc.Strategy != "" {
		output["strategy"] = doc.Strategy
	}
	if periodOnly {
		return output
	}

	output["transactions"] = doc.Transactions
	if doc.RawText != "" {
		output["raw_text"] = doc.RawText
	}
	return output
}

type csvRow struct {
	File        string  `csv:"file"`
	Date        string  `csv:"date"`
	Description string  `csv:"description"`
	Amount      float64 `csv:"amount"`
	Type        string  `csv:"type"`
	Category    string  `csv:"category"`
}

// WriteCSV writes one line per transaction across all documents.
func WriteCSV(w io.Writer, docs []*Document) error {
	rows := []*csvRow{}
	for _, doc := range docs {
		for _, tx := range doc.Transactions {
			rows = append(rows, &csvRow{
				File:        doc.Filename,
				Date:        tx.Date,
				Description: tx.Description,
				Amount:      tx.Amount,
				Type:        string(tx.Type),
				Category:    string(tx.Category),
			})
		}
	}
	return gocsv.Marshal(rows, w)
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ExecuteAgainstPath extracts a single file or every supported file in a
// directory and writes the result to w. Per-file failures are logged and
// do not stop a directory scan.
func ExecuteAgainstPath(ctx context.Context, svc *Service, path string, w io.Writer, opts OutputOptions) error {
	log := logger.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		log.Info().Str("path", path).Msg("scanning file")
		doc, err := svc.ProcessFile(ctx, path)
		if err != nil {
			return err
		}
		if opts.Format == FormatCSV {
			return WriteCSV(w, []*Document{doc})
		}
		if len(doc.Transactions) < 1 && !opts.PeriodOnly {
			return writeJSON(w, struct{}{})
		}
		return writeJSON(w, CreateFinalOutput(doc, opts.TransactionOnly, opts.PeriodOnly))
	}

	log.Info().Str("path", path).Msg("scanning directory")
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []*Document
	for _, e := range entries {
		if e.IsDir() || !svc.Supports(e.Name()) {
			continue
		}
		doc, err := svc.ProcessFile(ctx, filepath.Join(path, e.Name()))
		if err != nil {
			log.Error().Err(err).Str("file", e.Name()).Msg("extraction failed")
			continue
		}
		if len(doc.Transactions) > 0 {
			docs = append(docs, doc)
		}
	}

	if opts.Format == FormatCSV {
		return WriteCSV(w, docs)
	}
	result := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		result = append(result, CreateFinalOutput(doc, opts.TransactionOnly, opts.PeriodOnly))
	}
	return writeJSON(w, result)
}
