package extractor

import (
	"context"
	"regexp"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/category"
	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/extractor/table"
	"github.com/aqlanhadi/txnrecon/logger"
)

var (
	leadingPunct  = regexp.MustCompile(`^[:\-\s]+`)
	trailingPunct = regexp.MustCompile(`[:\-\s]+$`)
)

// A reconstructed table row mentioning any of these is money coming in.
var incomeKeywords = []string{"credit", "received", "deposit", "incoming", "salary", "refund"}

// finalize turns a reconstructed table transaction into a final one, or
// drops it when the description does not look like a transaction.
func (p *Pipeline) finalize(ctx context.Context, prov table.Provisional) (common.Transaction, bool) {
	desc := common.CollapseSpaces(strings.Join(prov.Fragments, " "))
	desc = trailingPunct.ReplaceAllString(leadingPunct.ReplaceAllString(desc, ""), "")

	if !common.IsValidDescription(desc) {
		log := logger.FromContext(ctx)
		log.Debug().Str("description", desc).Float64("amount", prov.Amount).Msg("rejected table fragment")
		return common.Transaction{}, false
	}

	direction := prov.Type
	if direction == "" {
		direction = common.Expense
	}
	lower := strings.ToLower(desc)
	for _, kw := range incomeKeywords {
		if strings.Contains(lower, kw) {
			direction = common.Income
			break
		}
	}

	return common.Transaction{
		Description: common.Truncate(desc, p.opts.DescriptionLimit),
		Amount:      prov.Amount,
		Date:        prov.Date,
		Type:        direction,
		Category:    p.categorizer.Categorize(desc),
	}, true
}

// canonicalize applies the same shape rules to results coming from a text
// strategy, whichever one produced them.
func (p *Pipeline) canonicalize(tx common.Transaction) (common.Transaction, bool) {
	desc := common.CollapseSpaces(tx.Description)
	if desc == "" || tx.Amount <= 0 {
		return common.Transaction{}, false
	}
	tx.Description = common.Truncate(desc, p.opts.DescriptionLimit)
	tx.Date = strings.TrimSpace(tx.Date)
	tx.Type = normalizeDirection(tx.Type)

	if tx.Category == "" {
		tx.Category = p.categorizer.Categorize(desc)
	} else if cat, ok := category.Normalize(string(tx.Category)); ok {
		tx.Category = cat
	} else {
		tx.Category = p.categorizer.Categorize(desc)
	}
	return tx, true
}

func normalizeDirection(d common.Direction) common.Direction {
	switch strings.ToLower(strings.TrimSpace(string(d))) {
	case "income", "credit", "cr", "deposit":
		return common.Income
	default:
		return common.Expense
	}
}

// Dedup keeps the first transaction for every (description prefix, amount) key.
func Dedup(txs []common.Transaction, prefix int) []common.Transaction {
	out := make([]common.Transaction, 0, len(txs))
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		key := common.DedupKey(tx.Description, tx.Amount, prefix)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}
	return out
}

// Merge prefers the table result whenever it found anything.
func Merge(tableTxs, textTxs []common.Transaction) []common.Transaction {
	if len(tableTxs) > 0 {
		return tableTxs
	}
	if textTxs == nil {
		return []common.Transaction{}
	}
	return textTxs
}
