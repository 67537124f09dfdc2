package common

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type fragmentMatcher struct {
	name string
	re   *regexp.Regexp
}

func fragment(name, pattern string) fragmentMatcher {
	return fragmentMatcher{name: name, re: regexp.MustCompile(`(?i)` + pattern)}
}

var (
	letterRun4Regex = regexp.MustCompile(`[a-zA-Z]{4,}`)
	wordRegex       = regexp.MustCompile(`[a-zA-Z]+`)
	monthOnlyRegex  = regexp.MustCompile(`(?i)^(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)(?:\s*\d{0,4})?$`)
)

// fragmentMatchers reject text that is a known extraction leftover.
var fragmentMatchers = []fragmentMatcher{
	fragment("colon-meridiem", `^:\s*(?:AM|PM)?\s*$`),
	fragment("colon-short", `^:\s*\S{1,4}\s*$`),
	fragment("colon-prefixed", `^\s*:\s*.{0,5}$`),
	fragment("empty-phone", `^Phone:\s*\(?\s*\)?\s*$`),
	fragment("time", `^\d{1,2}:\d{2}\s*(?:AM|PM)?$`),
	fragment("punctuation", `^[\s\-:.,;/\\]+$`),
	fragment("meridiem", `^(?:AM|PM)\s*$`),
	fragment("empty-parens", `^\(\s*\)\s*$`),
	fragment("no-letters", `^[^a-zA-Z]*$`),
	fragment("digits", `^\d+$`),
	fragment("abbreviation-number", `^[A-Z]{1,3}\s*\d*$`),
	fragment("numeric-date", `^\d{1,2}[-/]\d{1,2}(?:[-/]\d{2,4})?$`),
	fragment("day-month", `^\d{1,2}\s*(?:`+monthNames+`)[a-z]*$`),
	fragment("month-year", `^(?:`+monthNames+`)[a-z]*\s*\d{0,4}$`),
	fragment("short-caps", `^[A-Z]{1,4}$`),
	fragment("hour-meridiem", `^\d+\s*(?:AM|PM)$`),
	fragment("currency", `^(?:PKR|Rs\.?|USD|\$|EUR|€)\s*$`),
	fragment("other", `^OTHER\s*$`),
	fragment("not-available", `^N/?A\s*$`),
	fragment("dashes", `^\s*-+\s*$`),
	fragment("direction-word", `^(?:Debit|Credit|DR|CR)\s*$`),
	fragment("reference-number", `^\d{4,}$`),
}

// IsValidDescription is the single gate deciding whether text is a real
// transaction description. Checks run cheapest first.
func IsValidDescription(text string) bool {
	desc := strings.TrimSpace(text)
	if utf8.RuneCountInString(desc) < 6 {
		return false
	}
	if !letterRun4Regex.MatchString(desc) {
		return false
	}
	if monthOnlyRegex.MatchString(desc) {
		return false
	}
	for _, f := range fragmentMatchers {
		if f.re.MatchString(desc) {
			return false
		}
	}

	words := wordRegex.FindAllString(desc, -1)
	meaningful := 0
	for _, w := range words {
		if len(w) >= 5 {
			return true
		}
		if len(w) >= 3 {
			meaningful++
		}
	}
	return meaningful >= 2
}
