// Package period finds the statement month or date range in raw text.
package period

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aqlanhadi/txnrecon/extractor/common"
)

// monthEndDay is used for every month regardless of its real length.
const monthEndDay = 28

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	monthYearRegex = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec)\.?,?\s+(\d{4})\b`)
	rangeRegex     = regexp.MustCompile(`(?i)\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})\s*(?:to|-|–)\s*(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})\b`)
	isoRangeRegex  = regexp.MustCompile(`(?i)\b(\d{4})-(\d{2})-(\d{2})\s*(?:to|-|–)\s*(\d{4})-(\d{2})-(\d{2})\b`)
	yearRegex      = regexp.MustCompile(`\b(20(?:2[4-9]|3\d))\b`)
)

// Strategy is one entry of the ordered detection cascade.
type Strategy struct {
	Name   string
	Detect func(d *Detector, text string) *common.DetectedPeriod
}

type Detector struct {
	now        func() time.Time
	strategies []Strategy
}

func NewDetector() *Detector {
	return NewDetectorWithClock(time.Now)
}

// NewDetectorWithClock lets the year-only fallback use a fixed "current" month.
func NewDetectorWithClock(now func() time.Time) *Detector {
	return &Detector{
		now: now,
		strategies: []Strategy{
			{Name: "month-year", Detect: (*Detector).monthYear},
			{Name: "date-range", Detect: (*Detector).dateRange},
			{Name: "year-only", Detect: (*Detector).yearOnly},
		},
	}
}

// Detect returns the first period any strategy finds, or nil.
func (d *Detector) Detect(text string) *common.DetectedPeriod {
	for _, s := range d.strategies {
		if p := s.Detect(d, text); p != nil {
			return p
		}
	}
	return nil
}

func (d *Detector) monthYear(text string) *common.DetectedPeriod {
	m := monthYearRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	month := monthsByPrefix[strings.ToLower(m[1][:3])]
	return monthPeriod(month, atoi(m[2]), m[0])
}

func (d *Detector) dateRange(text string) *common.DetectedPeriod {
	for _, m := range rangeRegex.FindAllStringSubmatch(text, -1) {
		monthFirst := atoi(m[2]) > 12 || atoi(m[5]) > 12
		start, ok := numericDate(m[1], m[2], m[3], monthFirst)
		if !ok {
			continue
		}
		end, ok := numericDate(m[4], m[5], m[6], monthFirst)
		if !ok {
			continue
		}
		return rangePeriod(start, end, m[0])
	}
	for _, m := range isoRangeRegex.FindAllStringSubmatch(text, -1) {
		start, ok := isoDate(m[1], m[2], m[3])
		if !ok {
			continue
		}
		end, ok := isoDate(m[4], m[5], m[6])
		if !ok {
			continue
		}
		return rangePeriod(start, end, m[0])
	}
	return nil
}

func (d *Detector) yearOnly(text string) *common.DetectedPeriod {
	m := yearRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return monthPeriod(d.now().Month(), atoi(m[1]), m[0])
}

func monthPeriod(month time.Month, year int, raw string) *common.DetectedPeriod {
	return &common.DetectedPeriod{
		Month:     month.String(),
		Year:      year,
		StartDate: fmt.Sprintf("%04d-%02d-01", year, int(month)),
		EndDate:   fmt.Sprintf("%04d-%02d-%02d", year, int(month), monthEndDay),
		Raw:       strings.TrimSpace(raw),
	}
}

func rangePeriod(start, end time.Time, raw string) *common.DetectedPeriod {
	return &common.DetectedPeriod{
		Month:     start.Month().String(),
		Year:      start.Year(),
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Raw:       strings.TrimSpace(raw),
	}
}

// numericDate reads day/month/year, or month/day/year when either end of
// the range shows the second number cannot be a month.
func numericDate(a, b, y string, monthFirst bool) (time.Time, bool) {
	day, month := atoi(a), atoi(b)
	if monthFirst {
		day, month = month, day
	}
	year := atoi(y)
	if len(y) == 2 {
		year += 2000
	}
	return validDate(year, month, day)
}

func isoDate(y, m, dd string) (time.Time, bool) {
	return validDate(atoi(y), atoi(m), atoi(dd))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func validDate(year, month, day int) (time.Time, bool) {
	if year < 1900 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
