package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func history(symbol string, dates ...string) *PriceHistory {
	h := &PriceHistory{Symbol: symbol}
	for i, d := range dates {
		price := decimal.NewFromInt(int64(100 + i))
		h.Bars = append(h.Bars, Bar{
			Date:  day(d),
			Open:  price,
			High:  price.Add(decimal.NewFromInt(1)),
			Low:   price.Sub(decimal.NewFromInt(1)),
			Close: price,
		})
	}
	return h
}

func TestBetweenIsInclusive(t *testing.T) {
	h := history("AAPL", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08")
	r := DateRange{Start: day("2024-01-03"), End: day("2024-01-05")}

	got := h.Between(r)
	if got.Len() != 3 {
		t.Fatalf("expected 3 bars, got %d", got.Len())
	}
	for _, bar := range got.Bars {
		if bar.Date.Before(r.Start) || bar.Date.After(r.End) {
			t.Errorf("bar %s outside %s", bar.Date.Format(DateLayout), r)
		}
	}
	if got.Symbol != "AAPL" {
		t.Errorf("symbol not carried over: %q", got.Symbol)
	}
	if h.Len() != 5 {
		t.Errorf("source history mutated, len=%d", h.Len())
	}
}

func TestBetweenComparesCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	h := &PriceHistory{Symbol: "MSFT", Bars: []Bar{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, ny)},
		{Date: time.Date(2024, 3, 4, 0, 0, 0, 0, ny)},
	}}
	r := DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, ny),
		End:   time.Date(2024, 3, 4, 0, 0, 0, 0, ny),
	}
	if got := h.Between(r).Len(); got != 2 {
		t.Fatalf("expected both endpoints included, got %d bars", got)
	}
}

func TestOpenRangeKeepsEverything(t *testing.T) {
	h := history("SPOT", "2020-01-02", "2021-06-01", "2024-12-31")

	if got := h.Between(DateRange{}).Len(); got != 3 {
		t.Fatalf("open range: expected 3 bars, got %d", got)
	}
	if got := h.Between(DateRange{Start: day("2021-01-01")}).Len(); got != 2 {
		t.Fatalf("open end: expected 2 bars, got %d", got)
	}
	if got := h.Between(DateRange{End: day("2021-06-01")}).Len(); got != 2 {
		t.Fatalf("open start: expected 2 bars, got %d", got)
	}
}

func TestEmptyHistory(t *testing.T) {
	var h *PriceHistory
	if !h.Empty() {
		t.Fatal("nil history should be empty")
	}
	if !h.FirstDate().IsZero() || !h.LastDate().IsZero() {
		t.Fatal("empty history should report zero dates")
	}
	if h.Head(5) != nil {
		t.Fatal("empty history head should be nil")
	}
	if got := h.Between(DateRange{}); !got.Empty() {
		t.Fatal("filtering nil history should be empty")
	}
}

func TestHeadAndCloses(t *testing.T) {
	h := history("GOOGL", "2024-01-02", "2024-01-03", "2024-01-04")

	if got := len(h.Head(2)); got != 2 {
		t.Errorf("Head(2) returned %d bars", got)
	}
	if got := len(h.Head(10)); got != 3 {
		t.Errorf("Head(10) returned %d bars", got)
	}
	closes := h.Closes()
	if len(closes) != 3 || closes[0] != 100 || closes[2] != 102 {
		t.Errorf("unexpected closes %v", closes)
	}
	if h.FirstDate() != day("2024-01-02") || h.LastDate() != day("2024-01-04") {
		t.Errorf("unexpected bounds %s..%s", h.FirstDate(), h.LastDate())
	}
}

func TestDateRangeString(t *testing.T) {
	r := DateRange{Start: day("2023-01-01")}
	if got := r.String(); got != "2023-01-01 to latest" {
		t.Errorf("unexpected string %q", got)
	}
	if !(DateRange{}).IsOpen() {
		t.Error("zero range should be open")
	}
}
