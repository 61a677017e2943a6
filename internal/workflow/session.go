// Package workflow runs the fetch, filter, chart and correlate pipeline.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/internal/analysis"
	"github.com/dyike/CandleCorr/internal/cache"
	"github.com/dyike/CandleCorr/internal/charts"
	"github.com/dyike/CandleCorr/internal/dataflows"
	"github.com/dyike/CandleCorr/internal/display"
	"github.com/dyike/CandleCorr/internal/logger"
	"github.com/dyike/CandleCorr/models"
)

// Session represents one run over a set of symbols.
type Session struct {
	config   *config.Config
	provider dataflows.HistoryProvider
	printer  *display.Printer
	log      *logrus.Entry

	openChart func(path string) error
}

// Result is what a full run produced.
type Result struct {
	Histories []*models.PriceHistory
	Charts    []string
	Matrix    *analysis.CorrelationMatrix
}

// NewSession wraps provider in an in-memory cache so each symbol is
// fetched once however many passes the run makes.
func NewSession(cfg *config.Config, provider dataflows.HistoryProvider, out io.Writer) *Session {
	if _, ok := provider.(*cache.HistoryCache); !ok {
		provider = cache.NewHistoryCache(provider, cfg.CacheTTL)
	}
	return &Session{
		config:    cfg,
		provider:  provider,
		printer:   display.NewPrinter(out),
		log:       logger.For("session"),
		openChart: charts.Open,
	}
}

// Printer exposes the console printer for callers adding their own output.
func (s *Session) Printer() *display.Printer {
	return s.printer
}

// LoadHistories fetches every symbol in order. Symbols without data are
// reported and skipped; any other failure aborts the load.
func (s *Session) LoadHistories(ctx context.Context, symbols []string) ([]*models.PriceHistory, error) {
	histories := make([]*models.PriceHistory, 0, len(symbols))
	for _, symbol := range symbols {
		h, err := s.provider.History(ctx, symbol)
		if errors.Is(err, dataflows.ErrNoData) || (err == nil && h.Empty()) {
			s.log.WithField("symbol", symbol).Warn("no data available, skipping")
			s.printer.NoData(symbol)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		histories = append(histories, h)
	}
	return histories, nil
}

// ReportAvailability prints each history's full date span and head.
func (s *Session) ReportAvailability(histories []*models.PriceHistory) {
	for _, h := range histories {
		s.printer.Availability(h, s.config.PreviewRows)
	}
}

// ApplyRange filters every history to r and previews the result. A symbol
// with no bars in range keeps an empty history.
func (s *Session) ApplyRange(histories []*models.PriceHistory, r models.DateRange) []*models.PriceHistory {
	filtered := make([]*models.PriceHistory, 0, len(histories))
	for _, h := range histories {
		f := h.Between(r)
		s.log.WithFields(logrus.Fields{
			"symbol": h.Symbol,
			"range":  r.String(),
			"bars":   f.Len(),
		}).Debug("filtered history")
		s.printer.RangePreview(f, r, s.config.PreviewRows)
		filtered = append(filtered, f)
	}
	return filtered
}

// RenderCharts writes one chart per non-empty history plus the combined
// chart, returning the written paths.
func (s *Session) RenderCharts(histories []*models.PriceHistory) ([]string, error) {
	opts := charts.OptionsFromConfig(s.config)

	var paths []string
	var plotted []*models.PriceHistory
	for _, h := range histories {
		if h.Empty() {
			s.log.WithField("symbol", h.Symbol).Warn("nothing to chart in range")
			continue
		}
		path := filepath.Join(s.config.ResultsDir, charts.ChartFileName(h.Symbol))
		if err := charts.WriteHTML(path, charts.Candlestick(h, opts)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
		plotted = append(plotted, h)
	}

	if len(plotted) == 0 {
		return paths, nil
	}

	combined := filepath.Join(s.config.ResultsDir, charts.CombinedFileName)
	if err := charts.WriteHTML(combined, charts.Combined(plotted, opts)); err != nil {
		return paths, err
	}
	paths = append(paths, combined)

	for _, path := range paths {
		s.printer.Success("Chart written to %s", path)
		if s.config.OpenBrowser {
			if err := s.openChart(path); err != nil {
				s.log.WithError(err).WithField("path", path).Warn("could not open chart")
			}
		}
	}
	return paths, nil
}

// Correlate joins the closing prices and prints their correlation matrix.
func (s *Session) Correlate(histories []*models.PriceHistory) (*analysis.CorrelationMatrix, error) {
	table := analysis.BuildClosingTable(histories)
	s.log.WithFields(logrus.Fields{
		"symbols": table.Cols(),
		"dates":   table.Rows(),
	}).Debug("built closing table")

	matrix, err := analysis.Correlate(table, s.config.CorrelationMethod)
	if err != nil {
		return nil, err
	}
	s.printer.Correlation(matrix)
	return matrix, nil
}

// Run executes the whole pipeline for symbols over r.
func (s *Session) Run(ctx context.Context, symbols []string, r models.DateRange) (*Result, error) {
	histories, err := s.LoadHistories(ctx, symbols)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if len(histories) == 0 {
		s.printer.Info("Nothing to chart or correlate.")
		return result, nil
	}

	s.ReportAvailability(histories)
	return s.Analyze(histories, r)
}

// Analyze runs the stages after loading: filter, chart and correlate.
func (s *Session) Analyze(histories []*models.PriceHistory, r models.DateRange) (*Result, error) {
	filtered := s.ApplyRange(histories, r)
	result := &Result{Histories: filtered}

	paths, err := s.RenderCharts(filtered)
	result.Charts = paths
	if err != nil {
		return result, fmt.Errorf("render charts: %w", err)
	}

	matrix, err := s.Correlate(filtered)
	if err != nil {
		return result, fmt.Errorf("correlate: %w", err)
	}
	result.Matrix = matrix
	return result, nil
}
