// Package analysis aligns closing-price series and correlates them.
package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/dyike/CandleCorr/models"
)

// ClosingTable holds closing prices aligned on the first symbol's trading
// dates. Values is row-major (one row per date, one column per symbol);
// cells a symbol did not trade are NaN.
type ClosingTable struct {
	Dates   []time.Time
	Symbols []string
	Values  [][]float64
}

// BuildClosingTable joins the closing series of histories onto the dates
// of the first history. Later symbols' bars on other dates are dropped,
// so an empty first history yields a table with no rows. Column order
// follows the histories slice.
func BuildClosingTable(histories []*models.PriceHistory) *ClosingTable {
	table := &ClosingTable{}

	for _, h := range histories {
		if h == nil {
			table.Symbols = append(table.Symbols, "")
			continue
		}
		table.Symbols = append(table.Symbols, h.Symbol)
	}

	index := make(map[int64]int)
	if len(histories) > 0 && histories[0] != nil {
		for _, bar := range histories[0].Bars {
			key := dateKey(bar.Date)
			if _, ok := index[key]; !ok {
				index[key] = len(table.Dates)
				table.Dates = append(table.Dates, bar.Date)
			}
		}
	}

	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })
	for i, d := range table.Dates {
		index[dateKey(d)] = i
	}

	table.Values = make([][]float64, len(table.Dates))
	for i := range table.Values {
		row := make([]float64, len(histories))
		for j := range row {
			row[j] = math.NaN()
		}
		table.Values[i] = row
	}

	for j, h := range histories {
		if h == nil {
			continue
		}
		for _, bar := range h.Bars {
			if i, ok := index[dateKey(bar.Date)]; ok {
				table.Values[i][j] = bar.Close.InexactFloat64()
			}
		}
	}

	return table
}

func (t *ClosingTable) Rows() int { return len(t.Dates) }

func (t *ClosingTable) Cols() int { return len(t.Symbols) }

// Column returns a copy of column j including NaN gaps.
func (t *ClosingTable) Column(j int) []float64 {
	col := make([]float64, len(t.Values))
	for i, row := range t.Values {
		col[i] = row[j]
	}
	return col
}

func dateKey(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}
