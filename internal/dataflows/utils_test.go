package dataflows

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/CandleCorr/models"
)

func TestParseSymbols(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"AAPL, MSFT", []string{"AAPL", "MSFT"}},
		{"'SPOT, AAPL, GOOGL'", []string{"SPOT", "AAPL", "GOOGL"}},
		{`"aapl", "msft"`, []string{"AAPL", "MSFT"}},
		{"AAPL,,  ,MSFT,", []string{"AAPL", "MSFT"}},
		{"aapl, AAPL, msft", []string{"AAPL", "MSFT"}},
		{"   ", nil},
	}

	for _, tc := range cases {
		got := ParseSymbols(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSymbols(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	for _, ok := range []string{"AAPL", "brk-b", "^GSPC", "EURUSD=X", "0700.HK"} {
		if err := ValidateSymbol(ok); err != nil {
			t.Errorf("ValidateSymbol(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "   ", "AAPL MSFT", "TOOLONGSYMBOLNAME", "A$PL"} {
		err := ValidateSymbol(bad)
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("ValidateSymbol(%q) = %v, want ErrInvalidSymbol", bad, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	got, err := ParseDate(" 2024-03-15 ", ny)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %s, want %s", got, want)
	}

	empty, err := ParseDate("", ny)
	if err != nil || !empty.IsZero() {
		t.Errorf("empty date should be zero without error, got %s, %v", empty, err)
	}

	if _, err := ParseDate("15/03/2024", ny); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2023-01-01", "2023-12-31", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateRange: %v", err)
	}
	if r.Start.Format(models.DateLayout) != "2023-01-01" || r.End.Format(models.DateLayout) != "2023-12-31" {
		t.Errorf("unexpected range %s", r)
	}

	if _, err := ParseDateRange("2024-02-01", "2024-01-01", time.UTC); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("reversed range should fail with ErrInvalidDate, got %v", err)
	}

	open, err := ParseDateRange("", "2024-01-01", time.UTC)
	if err != nil || !open.Start.IsZero() {
		t.Errorf("open start should be allowed, got %s, %v", open, err)
	}
}

func TestTradingDay(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	// 2024-01-02 09:30 ET
	got := tradingDay(1704205800, ny)
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("tradingDay = %s, want %s", got, want)
	}
}

func TestNormalizeBarsSortsAndDeduplicates(t *testing.T) {
	d := func(s string) time.Time {
		v, _ := time.Parse(models.DateLayout, s)
		return v
	}
	bars := []models.Bar{
		{Date: d("2024-01-03"), Close: decimal.NewFromInt(3)},
		{Date: d("2024-01-02"), Close: decimal.NewFromInt(2)},
		{Date: d("2024-01-03"), Close: decimal.NewFromInt(4)},
	}

	got := normalizeBars(bars)
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if !got[0].Date.Equal(d("2024-01-02")) {
		t.Errorf("bars not sorted: first is %s", got[0].Date)
	}
	if !got[1].Close.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected last duplicate to win, got close %s", got[1].Close)
	}
}

func TestExchangeLocation(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")

	if got := exchangeLocation("Asia/Hong_Kong", ny); got.String() != "Asia/Hong_Kong" {
		t.Errorf("expected exchange zone, got %s", got)
	}
	if got := exchangeLocation("", ny); got != ny {
		t.Errorf("empty name should fall back, got %s", got)
	}
	if got := exchangeLocation("Mars/Olympus_Mons", ny); got != ny {
		t.Errorf("unknown name should fall back, got %s", got)
	}
}

func TestFormatDateRange(t *testing.T) {
	start := time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	if got := FormatDateRange(start, end); got != "2023-01-03 to 2023-12-29" {
		t.Errorf("FormatDateRange = %q", got)
	}
}
