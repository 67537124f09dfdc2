package extractor

import (
	"regexp"
)

const UnknownBank = "Unknown Bank"

type bankMatcher struct {
	name string
	re   *regexp.Regexp
}

// banks is checked in order; the first name found in the text wins.
var banks = func() []bankMatcher {
	names := []string{
		"HBL", "Habib Bank", "UBL", "United Bank", "MCB", "Muslim Commercial",
		"Allied Bank", "Bank Alfalah", "Meezan Bank", "Standard Chartered",
		"Faysal Bank", "JS Bank", "Bank of Punjab", "Askari Bank",
		"HDFC", "ICICI", "SBI", "Axis Bank", "Kotak",
	}
	matchers := make([]bankMatcher, 0, len(names))
	for _, name := range names {
		matchers = append(matchers, bankMatcher{
			name: name,
			re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`),
		})
	}
	return matchers
}()

// DetectBank names the issuing bank, or UnknownBank.
func DetectBank(text string) string {
	for _, b := range banks {
		if b.re.MatchString(text) {
			return b.name
		}
	}
	return UnknownBank
}
