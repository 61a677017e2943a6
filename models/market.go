package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Bar is one trading day of OHLC data. Date is midnight of the trading
// day in the exchange timezone.
type Bar struct {
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// PriceHistory is a symbol's daily bars in ascending date order.
type PriceHistory struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

func (h *PriceHistory) Len() int {
	if h == nil {
		return 0
	}
	return len(h.Bars)
}

func (h *PriceHistory) Empty() bool {
	return h.Len() == 0
}

// FirstDate returns the earliest trading date, or the zero time.
func (h *PriceHistory) FirstDate() time.Time {
	if h.Empty() {
		return time.Time{}
	}
	return h.Bars[0].Date
}

// LastDate returns the latest trading date, or the zero time.
func (h *PriceHistory) LastDate() time.Time {
	if h.Empty() {
		return time.Time{}
	}
	return h.Bars[len(h.Bars)-1].Date
}

// Head returns at most n leading bars.
func (h *PriceHistory) Head(n int) []Bar {
	if h.Empty() || n <= 0 {
		return nil
	}
	if n > len(h.Bars) {
		n = len(h.Bars)
	}
	return h.Bars[:n]
}

// Between returns a copy holding only the bars inside r.
func (h *PriceHistory) Between(r DateRange) *PriceHistory {
	out := &PriceHistory{}
	if h == nil {
		return out
	}
	out.Symbol = h.Symbol
	for _, bar := range h.Bars {
		if r.Contains(bar.Date) {
			out.Bars = append(out.Bars, bar)
		}
	}
	return out
}

func (h *PriceHistory) Closes() []float64 {
	closes := make([]float64, 0, h.Len())
	if h == nil {
		return closes
	}
	for _, bar := range h.Bars {
		closes = append(closes, bar.Close.InexactFloat64())
	}
	return closes
}

// DateRange is an inclusive calendar-date range. A zero Start or End is
// an open bound.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains compares at day granularity using t's own calendar date.
func (r DateRange) Contains(t time.Time) bool {
	day := dayKey(t)
	if !r.Start.IsZero() && day < dayKey(r.Start) {
		return false
	}
	if !r.End.IsZero() && day > dayKey(r.End) {
		return false
	}
	return true
}

func (r DateRange) IsOpen() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	start, end := "beginning", "latest"
	if !r.Start.IsZero() {
		start = r.Start.Format(DateLayout)
	}
	if !r.End.IsZero() {
		end = r.End.Format(DateLayout)
	}
	return fmt.Sprintf("%s to %s", start, end)
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
