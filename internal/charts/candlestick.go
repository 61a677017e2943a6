// Package charts renders candlestick charts as standalone HTML pages.
package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/browser"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/models"
)

const (
	CombinedFileName = "candlestick_combined.html"
	CombinedTitle    = "Stock Prices Candlestick Chart"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Options controls chart size and colours.
type Options struct {
	Width           int
	Height          int
	IncreasingColor string
	DecreasingColor string
	Palette         []string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Width:           cfg.ChartWidth,
		Height:          cfg.ChartHeight,
		IncreasingColor: cfg.IncreasingColor,
		DecreasingColor: cfg.DecreasingColor,
		Palette:         cfg.Palette,
	}
}

// Renderer is satisfied by every go-echarts chart.
type Renderer interface {
	Render(w io.Writer) error
}

// Candlestick builds the chart for a single symbol.
func Candlestick(h *models.PriceHistory, o Options) *charts.Kline {
	kline := newKline(fmt.Sprintf("%s - %s", CombinedTitle, h.Symbol), o)

	dates := make([]string, 0, h.Len())
	data := make([]opts.KlineData, 0, h.Len())
	for _, bar := range h.Bars {
		dates = append(dates, bar.Date.Format(models.DateLayout))
		data = append(data, klineValue(bar))
	}

	kline.SetXAxis(dates).AddSeries(h.Symbol, data,
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        o.IncreasingColor,
			Color0:       o.DecreasingColor,
			BorderColor:  o.IncreasingColor,
			BorderColor0: o.DecreasingColor,
		}),
	)
	return kline
}

// Combined overlays every symbol on one date axis, the sorted union of
// all trading dates. Days a symbol did not trade are left blank. Each
// symbol uses one palette colour for rising and falling candles.
func Combined(histories []*models.PriceHistory, o Options) *charts.Kline {
	kline := newKline(CombinedTitle, o)

	seen := make(map[string]bool)
	var dates []string
	for _, h := range histories {
		for _, bar := range h.Bars {
			d := bar.Date.Format(models.DateLayout)
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}
	sort.Strings(dates)
	kline.SetXAxis(dates)

	for i, h := range histories {
		byDate := make(map[string]models.Bar, h.Len())
		for _, bar := range h.Bars {
			byDate[bar.Date.Format(models.DateLayout)] = bar
		}

		data := make([]opts.KlineData, len(dates))
		for k, d := range dates {
			if bar, ok := byDate[d]; ok {
				data[k] = klineValue(bar)
			} else {
				data[k] = opts.KlineData{Value: "-"}
			}
		}

		color := paletteColor(o.Palette, i)
		kline.AddSeries(h.Symbol, data,
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:        color,
				Color0:       color,
				BorderColor:  color,
				BorderColor0: color,
			}),
		)
	}
	return kline
}

func newKline(title string, o Options) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     fmt.Sprintf("%dpx", o.Width),
			Height:    fmt.Sprintf("%dpx", o.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 20}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: 100, XAxisIndex: []int{0}},
			opts.DataZoom{Type: "inside", Start: 0, End: 100, XAxisIndex: []int{0}},
		),
	)
	return kline
}

// klineValue orders a bar the way echarts expects: open, close, low, high.
func klineValue(bar models.Bar) opts.KlineData {
	return opts.KlineData{Value: [4]float64{
		bar.Open.InexactFloat64(),
		bar.Close.InexactFloat64(),
		bar.Low.InexactFloat64(),
		bar.High.InexactFloat64(),
	}}
}

func paletteColor(palette []string, i int) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[i%len(palette)]
}

// ChartFileName is the per-symbol output file name.
func ChartFileName(symbol string) string {
	name := unsafeFileChars.ReplaceAllString(strings.ToUpper(symbol), "_")
	return fmt.Sprintf("candlestick_%s.html", name)
}

// WriteHTML renders chart into a standalone HTML file at path.
func WriteHTML(path string, chart Renderer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	if err := chart.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("render chart %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Open shows a rendered chart in the default browser.
func Open(path string) error {
	return browser.OpenFile(path)
}
