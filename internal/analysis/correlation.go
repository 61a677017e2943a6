package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	Pearson  = "pearson"
	Spearman = "spearman"
)

var ErrNotEnoughSeries = errors.New("correlation needs at least one series")

// CorrelationMatrix is a symmetric matrix of pairwise coefficients, with
// rows and columns in Symbols order.
type CorrelationMatrix struct {
	Symbols []string
	Method  string
	Values  *mat.SymDense
}

func (m *CorrelationMatrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}

func (m *CorrelationMatrix) Size() int {
	return len(m.Symbols)
}

// Correlate computes the correlation matrix of the table's columns using
// pairwise-complete observations. A pair with fewer than two shared
// observations, or with a constant series, yields NaN.
func Correlate(table *ClosingTable, method string) (*CorrelationMatrix, error) {
	if table == nil || table.Cols() == 0 {
		return nil, ErrNotEnoughSeries
	}
	if method == "" {
		method = Pearson
	}
	if method != Pearson && method != Spearman {
		return nil, fmt.Errorf("unknown correlation method %q", method)
	}

	n := table.Cols()
	columns := make([][]float64, n)
	for j := range columns {
		columns[j] = table.Column(j)
	}

	values := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x, y := pairwiseComplete(columns[i], columns[j])
			values.SetSym(i, j, coefficient(x, y, method, i == j))
		}
	}

	return &CorrelationMatrix{
		Symbols: append([]string(nil), table.Symbols...),
		Method:  method,
		Values:  values,
	}, nil
}

func coefficient(x, y []float64, method string, diagonal bool) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	if diagonal {
		return 1
	}

	if method == Spearman {
		x, y = rank(x), rank(y)
	}

	r := stat.Correlation(x, y, nil)
	switch {
	case math.IsNaN(r):
		return r
	case r > 1:
		return 1
	case r < -1:
		return -1
	}
	return r
}

// pairwiseComplete keeps the rows where both values are present.
func pairwiseComplete(a, b []float64) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

// rank assigns 1-based ranks, averaging ties.
func rank(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
