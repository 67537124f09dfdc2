package common

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultAmountCeiling rejects table amounts that are more likely reference numbers.
const DefaultAmountCeiling = 1000000

var (
	currencyPrefixRegex = regexp.MustCompile(`(?i)^(?:rs\.?|pkr|rm|₨|\$|€|₹|£)+`)
	plainAmountRegex    = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
	letterRun3Regex     = regexp.MustCompile(`[a-zA-Z]{3,}`)
	pureNumberRegex     = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
	timeOnlyRegex       = regexp.MustCompile(`(?i)^\d{1,2}:\d{2}\s*(?:AM|PM)?$`)
	whitespaceRegex     = regexp.MustCompile(`\s+`)
)

// ParseAmount parses a cell such as "Rs. 1,234.50" into a positive value.
// Anything that is not a plain positive amount is rejected.
func ParseAmount(cell string) (decimal.Decimal, bool) {
	clean := strings.ReplaceAll(cell, ",", "")
	clean = strings.Join(strings.Fields(clean), "")
	clean = currencyPrefixRegex.ReplaceAllString(clean, "")
	if !plainAmountRegex.MatchString(clean) {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(clean)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// AmountParser applies ParseAmount and an optional upper bound.
type AmountParser struct {
	Ceiling float64
}

// Parse returns the amount of a cell, rejecting values at or above Ceiling.
func (p AmountParser) Parse(cell string) (float64, bool) {
	amount, ok := ParseAmount(cell)
	if !ok {
		return 0, false
	}
	if p.Ceiling > 0 && amount.GreaterThanOrEqual(decimal.NewFromFloat(p.Ceiling)) {
		return 0, false
	}
	return amount.InexactFloat64(), true
}

const monthNames = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

// DateMatcher is one entry of the ordered date cascade.
type DateMatcher struct {
	Name     string
	anchored *regexp.Regexp
	anywhere *regexp.Regexp
}

func newDateMatcher(name, body string, openEnded bool) DateMatcher {
	anchored := `(?i)^(` + body + `)`
	if !openEnded {
		anchored += `$`
	}
	return DateMatcher{
		Name:     name,
		anchored: regexp.MustCompile(anchored),
		anywhere: regexp.MustCompile(`(?i)\b(` + body + `)\b`),
	}
}

// DateMatchers are tried in order; the first match wins.
var DateMatchers = []DateMatcher{
	newDateMatcher("day-month-year", `\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`, false),
	newDateMatcher("day-monthname", `\d{1,2}\s+(?:`+monthNames+`)[a-z]*(?:\s+\d{2,4})?`, false),
	newDateMatcher("iso", `\d{4}[-/]\d{2}[-/]\d{2}`, false),
	newDateMatcher("ordinal-monthname", `\d{1,2}(?:st|nd|rd|th)?\s+(?:`+monthNames+`)[a-z]*`, true),
}

// MatchDate reports whether the whole cell is a date, returning it as written.
func MatchDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if len(cell) < 4 {
		return "", false
	}
	for _, m := range DateMatchers {
		if match := m.anchored.FindStringSubmatch(cell); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// FindDateInRow returns the first date cell of a row.
func FindDateInRow(row RawRow) (date string, column int, ok bool) {
	for i, cell := range row {
		if d, found := MatchDate(cell); found {
			return d, i, true
		}
	}
	return "", -1, false
}

// FindDateInText searches anywhere in a line.
func FindDateInText(line string) (string, bool) {
	for _, m := range DateMatchers {
		if match := m.anywhere.FindStringSubmatch(line); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// IsTextCell reports whether a cell can contribute to a description.
func IsTextCell(cell string) bool {
	cell = strings.TrimSpace(cell)
	if len(cell) < 3 {
		return false
	}
	if !letterRun3Regex.MatchString(cell) {
		return false
	}
	if pureNumberRegex.MatchString(strings.ReplaceAll(cell, ",", "")) {
		return false
	}
	return !timeOnlyRegex.MatchString(cell)
}

// CollapseSpaces trims and reduces every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// DedupKey identifies a transaction within one document.
func DedupKey(description string, amount float64, prefix int) string {
	return Truncate(description, prefix) + "_" + strconv.FormatFloat(amount, 'f', -1, 64)
}
