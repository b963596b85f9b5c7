package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Day-before-month layouts come first so an
// ambiguous "02/03/2024" is 2 March.
var dateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"2-1-2006",
	"2.1.2006",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan 06",
	"2-Jan-2006",
	"2-Jan-06",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2006-01-02T15:04:05",
}

// monthFirstLayouts are only tried once every day-first layout has failed,
// so "01/13/2024" still parses as 13 January.
var monthFirstLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// ParseDate parses a statement date with day-first precedence and returns
// the calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("parsing date: empty value")
	}
	for _, layouts := range [][]string{dateLayouts, monthFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, v); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", v)
}

// ParseAmount parses a money field. Currency symbols, thousands separators
// and surrounding space are ignored; "(12.00)" is negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '£', '$', '€', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	neg := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		neg = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
