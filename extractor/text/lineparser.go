// Package text parses unstructured statement text line by line. It is the
// fallback used when a document carries no usable table.
package text

import (
	"regexp"
	"strings"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/shopspring/decimal"
)

const (
	DefaultLimit      = 100
	descriptionLength = 100
	dedupPrefix       = 30
	minLineLength     = 8
)

var skipKeywords = []string{
	"balance", "total", "opening", "closing", "date", "description",
	"particular", "narration", "page", "statement", "account",
}

var (
	amountRegex         = regexp.MustCompile(`(?i)(?:rs\.?\s*|pkr\s*|₨\s*|\$\s*|€\s*|₹\s*)?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	currencyMarkerRegex = regexp.MustCompile(`(?i)\b(?:rs\.?|pkr)\s*|[₨$€₹]\s*`)
	separatorRegex      = regexp.MustCompile(`[-/.,\s]+`)
	letterRun2Regex     = regexp.MustCompile(`[a-zA-Z]{2,}`)
)

type directionRule struct {
	direction common.Direction
	re        *regexp.Regexp
}

// wordsRegex matches keywords at a word start. Single words of four or more
// letters also match inflected forms ("refunded", "deposited"); short tokens
// and phrases must match whole.
func wordsRegex(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		if len(w) >= 4 && !strings.Contains(w, " ") {
			quoted[i] = regexp.QuoteMeta(w) + `\w*`
		} else {
			quoted[i] = regexp.QuoteMeta(w) + `\b`
		}
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)`)
}

// directionRules are checked in order; lines matching neither are expenses.
var directionRules = []directionRule{
	{common.Income, wordsRegex("credit", "cr", "deposit", "received", "salary", "transfer in",
		"incoming", "refund", "cashback", "reversal", "credited")},
	{common.Expense, wordsRegex("debit", "dr", "withdrawal", "payment", "purchase", "transfer out",
		"outgoing", "debited", "paid")},
}

// Candidate is a transaction read from a single line, not yet categorized.
type Candidate struct {
	Description string
	Amount      float64
	Date        string
	Type        common.Direction
}

type Options struct {
	// Limit caps unique candidates per document. Zero means DefaultLimit.
	Limit int
	// Strict additionally runs the description validator on every line.
	Strict bool
}

type LineParser struct {
	opts Options
}

func NewLineParser(opts Options) *LineParser {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &LineParser{opts: opts}
}

// Parse walks the text and returns at most Limit unique candidates.
func (p *LineParser) Parse(text string) []Candidate {
	var candidates []Candidate
	seen := map[string]bool{}

	for _, line := range strings.Split(text, "\n") {
		c, ok := p.ParseLine(line)
		if !ok {
			continue
		}
		key := common.DedupKey(c.Description, c.Amount, dedupPrefix)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, c)
		if len(candidates) == p.opts.Limit {
			break
		}
	}

	return candidates
}

// ParseLine reads one line on its own; no state carries between lines.
func (p *LineParser) ParseLine(raw string) (Candidate, bool) {
	line := strings.TrimSpace(raw)
	if len(line) < minLineLength {
		return Candidate{}, false
	}
	lower := strings.ToLower(line)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return Candidate{}, false
		}
	}

	rest := line
	date, hasDate := common.FindDateInText(line)
	if hasDate {
		rest = strings.Replace(rest, date, " ", 1)
	}

	amounts := findAmounts(rest)
	if len(amounts) == 0 {
		return Candidate{}, false
	}
	amount := amounts[0]
	if len(amounts) >= 2 {
		// the last figure on a statement line is usually the running balance
		amount = amounts[len(amounts)-2]
	}

	desc := amountRegex.ReplaceAllString(rest, " ")
	desc = currencyMarkerRegex.ReplaceAllString(desc, "")
	desc = common.CollapseSpaces(separatorRegex.ReplaceAllString(desc, " "))
	if len(desc) < 3 || !letterRun2Regex.MatchString(desc) {
		return Candidate{}, false
	}
	if p.opts.Strict && !common.IsValidDescription(desc) {
		return Candidate{}, false
	}

	c := Candidate{
		Description: common.Truncate(desc, descriptionLength),
		Amount:      amount,
		Type:        Direction(line),
	}
	if hasDate {
		c.Date = date
	}
	return c, true
}

// Direction classifies a line by keyword.
func Direction(line string) common.Direction {
	for _, rule := range directionRules {
		if rule.re.MatchString(line) {
			return rule.direction
		}
	}
	return common.Expense
}

func findAmounts(s string) []float64 {
	var amounts []float64
	for _, m := range amountRegex.FindAllStringSubmatch(s, -1) {
		value, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || !value.IsPositive() {
			continue
		}
		amounts = append(amounts, value.InexactFloat64())
	}
	return amounts
}
