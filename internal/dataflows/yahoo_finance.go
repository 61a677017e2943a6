package dataflows

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/sirupsen/logrus"

	"github.com/dyike/CandleCorr/internal/logger"
	"github.com/dyike/CandleCorr/models"
)

// YahooFinanceClient handles Yahoo Finance data operations through the
// finance-go SDK.
type YahooFinanceClient struct {
	charts chart.Client
	loc    *time.Location
	log    *logrus.Entry
	now    func() time.Time
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(config *Config) (*YahooFinanceClient, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, err
	}

	backend := &finance.BackendConfiguration{
		Type:       finance.YFinBackend,
		URL:        strings.TrimRight(config.YahooBaseURL, "/"),
		HTTPClient: &http.Client{Timeout: config.RequestTimeout},
	}

	return &YahooFinanceClient{
		charts: chart.Client{B: backend},
		loc:    loc,
		log:    logger.For("finance-go"),
		now:    time.Now,
	}, nil
}

// History gets the full daily price history for a symbol. The SDK has no
// "max" period, so the window starts at the Unix epoch.
func (yf *YahooFinanceClient) History(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Unix(0, 0)
	end := yf.now()
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	params.Context = &ctx

	yf.log.WithField("symbol", symbol).Debug("requesting max daily history")

	iter := yf.charts.Get(params)

	var raw []*finance.ChartBar
	for iter.Next() {
		raw = append(raw, iter.Bar())
	}

	if err := iter.Err(); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}

	loc := exchangeLocation(iter.Meta().ExchangeTimezoneName, yf.loc)
	bars := chartBars(raw, loc)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	yf.log.WithFields(logrus.Fields{"symbol": symbol, "bars": len(bars)}).Debug("history received")

	return &models.PriceHistory{Symbol: symbol, Bars: bars}, nil
}

// chartBars converts SDK bars to trading-day bars in loc. The SDK decodes
// null quotes as zero, so rows without a close are dropped.
func chartBars(raw []*finance.ChartBar, loc *time.Location) []models.Bar {
	bars := make([]models.Bar, 0, len(raw))
	for _, bar := range raw {
		if bar == nil || bar.Close.IsZero() {
			continue
		}
		adj := bar.AdjClose
		if adj.IsZero() {
			adj = bar.Close
		}
		bars = append(bars, models.Bar{
			Date:     tradingDay(int64(bar.Timestamp), loc),
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: adj,
			Volume:   int64(bar.Volume),
		})
	}
	return normalizeBars(bars)
}

// isNotFound recognises the SDK errors for unknown or empty symbols. The
// SDK reports any HTTP error status with the same untyped message, and
// Yahoo answers unknown symbols with 404.
func isNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"not found",
		"no data found",
		"no results in chart response",
		"error response recieved from upstream api",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
