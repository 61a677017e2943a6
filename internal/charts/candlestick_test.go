package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/models"
)

func history(symbol string, start string, n int) *models.PriceHistory {
	first, _ := time.Parse(models.DateLayout, start)
	h := &models.PriceHistory{Symbol: symbol}
	for i := 0; i < n; i++ {
		p := decimal.NewFromInt(int64(100 + i))
		h.Bars = append(h.Bars, models.Bar{
			Date:  first.AddDate(0, 0, i),
			Open:  p,
			High:  p.Add(decimal.NewFromInt(2)),
			Low:   p.Sub(decimal.NewFromInt(2)),
			Close: p.Add(decimal.NewFromInt(1)),
		})
	}
	return h
}

func testOptions() Options {
	return OptionsFromConfig(config.DefaultConfig())
}

func render(t *testing.T, r Renderer) string {
	t.Helper()
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestCandlestickRendersSymbol(t *testing.T) {
	out := render(t, Candlestick(history("AAPL", "2024-01-02", 3), testOptions()))

	for _, want := range []string{"Stock Prices Candlestick Chart - AAPL", "2024-01-02", "2024-01-04", "tomato", "forestgreen", "900px"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered chart missing %q", want)
		}
	}
}

func TestCombinedUsesUnionOfDatesAndPalette(t *testing.T) {
	o := testOptions()
	chart := Combined([]*models.PriceHistory{
		history("AAPL", "2024-01-02", 2),
		history("MSFT", "2024-01-03", 2),
		history("GOOGL", "2024-01-02", 1),
		history("SPOT", "2024-01-02", 1),
	}, o)

	out := render(t, chart)
	for _, want := range []string{CombinedTitle, "AAPL", "MSFT", "GOOGL", "SPOT", "2024-01-04", "royalblue"} {
		if !strings.Contains(out, want) {
			t.Errorf("combined chart missing %q", want)
		}
	}
}

func TestPaletteColorCycles(t *testing.T) {
	palette := []string{"a", "b", "c"}
	if paletteColor(palette, 3) != "a" || paletteColor(palette, 5) != "c" {
		t.Error("palette should cycle")
	}
	if paletteColor(nil, 1) != "" {
		t.Error("empty palette should yield no colour")
	}
}

func TestChartFileName(t *testing.T) {
	if got := ChartFileName("brk-b"); got != "candlestick_BRK-B.html" {
		t.Errorf("unexpected name %q", got)
	}
	if got := ChartFileName("^GSPC"); got != "candlestick__GSPC.html" {
		t.Errorf("unexpected name %q", got)
	}
}

func TestWriteHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", ChartFileName("AAPL"))
	if err := WriteHTML(path, Candlestick(history("AAPL", "2024-01-02", 2), testOptions())); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Contains(data, []byte("<html")) {
		t.Error("expected an html document")
	}
}
