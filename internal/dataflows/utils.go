package dataflows

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dyike/CandleCorr/models"
)

const maxSymbolLength = 15

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=\-]+$`)

// ParseSymbols splits a comma-separated symbol list. Quotes are stripped,
// entries are trimmed and upper-cased, empties dropped and duplicates
// removed keeping the first occurrence.
func ParseSymbols(input string) []string {
	input = strings.NewReplacer("'", "", `"`, "").Replace(input)

	seen := make(map[string]bool)
	var symbols []string
	for _, part := range strings.Split(input, ",") {
		symbol := NormalizeSymbol(part)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols
}

// ValidateSymbol checks if a stock symbol is valid format
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if len(symbol) == 0 {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidSymbol)
	}
	if len(symbol) > maxSymbolLength {
		return fmt.Errorf("%w: symbol too long: %s", ErrInvalidSymbol, symbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %s (use letters, digits, '.', '-', '^' or '=')", ErrInvalidSymbol, symbol)
	}
	return nil
}

// NormalizeSymbol converts symbol to standard format
func NormalizeSymbol(symbol string) string {
	return strings.TrimSpace(strings.ToUpper(symbol))
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc. An empty string
// yields the zero time, which DateRange treats as an open bound.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(models.DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q, use YYYY-MM-DD", ErrInvalidDate, value)
	}
	return t, nil
}

// ParseDateRange parses both ends and rejects an end before the start.
func ParseDateRange(start, end string, loc *time.Location) (models.DateRange, error) {
	s, err := ParseDate(start, loc)
	if err != nil {
		return models.DateRange{}, err
	}
	e, err := ParseDate(end, loc)
	if err != nil {
		return models.DateRange{}, err
	}
	if !s.IsZero() && !e.IsZero() && e.Before(s) {
		return models.DateRange{}, fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidDate, e.Format(models.DateLayout), s.Format(models.DateLayout))
	}
	return models.DateRange{Start: s, End: e}, nil
}

// exchangeLocation resolves the zone an exchange reports for its
// symbols. Missing or unknown names fall back to fallback.
func exchangeLocation(name string, fallback *time.Location) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}

// tradingDay maps a bar timestamp to midnight of its trading date in loc.
func tradingDay(unix int64, loc *time.Location) time.Time {
	t := time.Unix(unix, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// normalizeBars sorts bars by date and keeps the last bar seen per day.
func normalizeBars(bars []models.Bar) []models.Bar {
	if len(bars) == 0 {
		return bars
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	out := bars[:0]
	for _, bar := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(bar.Date) {
			out[n-1] = bar
			continue
		}
		out = append(out, bar)
	}
	return out
}

// FormatDateRange creates a human-readable date range string
func FormatDateRange(start, end time.Time) string {
	return fmt.Sprintf("%s to %s",
		start.Format(models.DateLayout),
		end.Format(models.DateLayout))
}
