// Package display formats previews and correlation matrices for the console.
package display

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dyike/CandleCorr/internal/analysis"
	"github.com/dyike/CandleCorr/internal/dataflows"
	"github.com/dyike/CandleCorr/models"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Right)

	labelCellStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)
)

// Printer writes console output for one run.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Heading(title string) {
	fmt.Fprintln(p.out, headingStyle.Render(title))
}

func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.out, infoStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.out, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) NoData(symbol string) {
	fmt.Fprintln(p.out, warnStyle.Render(fmt.Sprintf("No data available for %s.", symbol)))
}

// Availability reports the full date span of h and previews its head.
func (p *Printer) Availability(h *models.PriceHistory, rows int) {
	fmt.Fprintf(p.out, "Prices available for %s from %s.\n",
		h.Symbol, dataflows.FormatDateRange(h.FirstDate(), h.LastDate()))
	fmt.Fprintln(p.out, PreviewTable(h, rows))
	fmt.Fprintln(p.out)
}

// RangePreview reports the requested range for a filtered history.
func (p *Printer) RangePreview(h *models.PriceHistory, r models.DateRange, rows int) {
	fmt.Fprintf(p.out, "Prices available for %s from %s.\n", h.Symbol, r)
	if h.Empty() {
		fmt.Fprintln(p.out, warnStyle.Render("  (no trading days in range)"))
	} else {
		fmt.Fprintln(p.out, PreviewTable(h, rows))
	}
	fmt.Fprintln(p.out)
}

func (p *Printer) Correlation(m *analysis.CorrelationMatrix) {
	p.Heading("Correlation Matrix:")
	fmt.Fprintln(p.out, CorrelationTable(m))
}

// PreviewTable renders the first n bars of h.
func PreviewTable(h *models.PriceHistory, n int) string {
	rows := make([][]string, 0, n)
	for _, bar := range h.Head(n) {
		rows = append(rows, []string{
			bar.Date.Format(models.DateLayout),
			bar.Open.StringFixed(2),
			bar.High.StringFixed(2),
			bar.Low.StringFixed(2),
			bar.Close.StringFixed(2),
			strconv.FormatInt(bar.Volume, 10),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			if col == 0 {
				return labelCellStyle
			}
			return cellStyle
		}).
		Headers("Date", "Open", "High", "Low", "Close", "Volume").
		Rows(rows...)

	return t.Render()
}

// CorrelationTable renders m with symbols as both header and row labels.
func CorrelationTable(m *analysis.CorrelationMatrix) string {
	headers := append([]string{""}, m.Symbols...)

	rows := make([][]string, 0, m.Size())
	for i, symbol := range m.Symbols {
		row := []string{symbol}
		for j := range m.Symbols {
			row = append(row, FormatCoefficient(m.At(i, j)))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			if col == 0 {
				return labelCellStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return t.Render()
}

func FormatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
