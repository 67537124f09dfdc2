// Package extractor turns raw table rows and statement text into a
// validated, categorized and deduplicated transaction list.
package extractor

import (
	"context"
	"errors"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/category"
	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/extractor/period"
	"github.com/aqlanhadi/txnrecon/extractor/table"
	"github.com/aqlanhadi/txnrecon/extractor/text"
	"github.com/aqlanhadi/txnrecon/logger"
)

// ErrUnusableInput is returned when there are no rows and the text is blank.
var ErrUnusableInput = errors.New("no usable text or rows in document")

const StrategyTable = "table"

// TextStrategy extracts transactions from free text. An error or an empty
// result both mean the next strategy should be tried.
type TextStrategy interface {
	Name() string
	ExtractText(ctx context.Context, text string) (*common.Result, error)
}

type Options struct {
	AmountCeiling    float64
	DescriptionLimit int
	DedupPrefix      int
}

func DefaultOptions() Options {
	return Options{
		AmountCeiling:    common.DefaultAmountCeiling,
		DescriptionLimit: 100,
		DedupPrefix:      30,
	}
}

// Analysis is a Result plus the name of the path that produced it.
type Analysis struct {
	common.Result
	Strategy string
}

type Pipeline struct {
	opts        Options
	categorizer *category.Categorizer
	detector    *period.Detector
	strategies  []TextStrategy
}

// NewPipeline builds a pipeline. Text strategies are tried in the given
// order; nil collaborators fall back to the defaults.
func NewPipeline(opts Options, categorizer *category.Categorizer, detector *period.Detector, strategies ...TextStrategy) *Pipeline {
	defaults := DefaultOptions()
	if opts.DescriptionLimit <= 0 {
		opts.DescriptionLimit = defaults.DescriptionLimit
	}
	if opts.DedupPrefix <= 0 {
		opts.DedupPrefix = defaults.DedupPrefix
	}
	if categorizer == nil {
		categorizer = category.Default()
	}
	if detector == nil {
		detector = period.NewDetector()
	}
	return &Pipeline{
		opts:        opts,
		categorizer: categorizer,
		detector:    detector,
		strategies:  strategies,
	}
}

// Extract runs the table path over rows, falls back to the text strategies
// when it finds nothing, and detects the statement period from rawText.
func (p *Pipeline) Extract(ctx context.Context, rows []common.RawRow, rawText string) (common.Result, error) {
	a, err := p.Analyze(ctx, rows, rawText)
	if err != nil {
		return common.Result{}, err
	}
	return a.Result, nil
}

func (p *Pipeline) Analyze(ctx context.Context, rows []common.RawRow, rawText string) (Analysis, error) {
	if len(rows) == 0 && strings.TrimSpace(rawText) == "" {
		return Analysis{}, ErrUnusableInput
	}
	log := logger.FromContext(ctx)

	tableTxs := p.extractTable(ctx, rows)
	log.Debug().Int("rows", len(rows)).Int("transactions", len(tableTxs)).Msg("table path finished")

	var (
		textTxs  []common.Transaction
		aiPeriod *common.DetectedPeriod
		strategy = StrategyTable
	)
	if len(tableTxs) == 0 && strings.TrimSpace(rawText) != "" {
		for _, s := range p.strategies {
			res, err := s.ExtractText(ctx, rawText)
			if err != nil {
				log.Warn().Err(err).Str("strategy", s.Name()).Msg("text strategy failed, trying next")
				continue
			}
			if res == nil {
				continue
			}
			txs := p.canonicalizeAll(res.Transactions)
			if len(txs) == 0 {
				log.Debug().Str("strategy", s.Name()).Msg("text strategy found nothing")
				continue
			}
			textTxs, aiPeriod, strategy = txs, res.DetectedPeriod, s.Name()
			break
		}
	}

	result := common.Result{
		Transactions:   Merge(tableTxs, textTxs),
		DetectedPeriod: p.detector.Detect(rawText),
	}
	if aiPeriod != nil && (aiPeriod.Month != "" || aiPeriod.StartDate != "") {
		result.DetectedPeriod = aiPeriod
	}
	if len(result.Transactions) == 0 {
		strategy = ""
	}
	return Analysis{Result: result, Strategy: strategy}, nil
}

func (p *Pipeline) extractTable(ctx context.Context, rows []common.RawRow) []common.Transaction {
	if len(rows) == 0 {
		return nil
	}
	var txs []common.Transaction
	for _, prov := range table.Reconstruct(rows, p.opts.AmountCeiling) {
		if tx, ok := p.finalize(ctx, prov); ok {
			txs = append(txs, tx)
		}
	}
	return Dedup(txs, p.opts.DedupPrefix)
}

func (p *Pipeline) canonicalizeAll(in []common.Transaction) []common.Transaction {
	var txs []common.Transaction
	for _, tx := range in {
		if c, ok := p.canonicalize(tx); ok {
			txs = append(txs, c)
		}
	}
	return Dedup(txs, p.opts.DedupPrefix)
}

// RegexStrategy is the line-by-line fallback; it never fails.
type RegexStrategy struct {
	parser *text.LineParser
}

func NewRegexStrategy(opts text.Options) *RegexStrategy {
	return &RegexStrategy{parser: text.NewLineParser(opts)}
}

func (s *RegexStrategy) Name() string {
	return "regex"
}

func (s *RegexStrategy) ExtractText(_ context.Context, t string) (*common.Result, error) {
	candidates := s.parser.Parse(t)
	txs := make([]common.Transaction, 0, len(candidates))
	for _, c := range candidates {
		txs = append(txs, common.Transaction{
			Description: c.Description,
			Amount:      c.Amount,
			Date:        c.Date,
			Type:        c.Type,
		})
	}
	return &common.Result{Transactions: txs}, nil
}
