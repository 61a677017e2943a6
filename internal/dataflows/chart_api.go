package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dyike/CandleCorr/internal/logger"
	"github.com/dyike/CandleCorr/models"
)

// ChartAPIClient reads daily bars from the Yahoo Finance v8 chart endpoint.
type ChartAPIClient struct {
	client *resty.Client
	loc    *time.Location
	log    *logrus.Entry
}

// chartResponse mirrors the parts of the chart payload we read. Every
// series element is nullable.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// NewChartAPIClient creates a new chart endpoint client
func NewChartAPIClient(config *Config) (*ChartAPIClient, error) {
	loc, err := config.Location()
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(config.YahooBaseURL, "/"))
	client.SetTimeout(config.RequestTimeout)
	client.SetHeader("User-Agent", config.UserAgent)
	client.SetHeader("Accept", "application/json")

	return &ChartAPIClient{
		client: client,
		loc:    loc,
		log:    logger.For("chart-api"),
	}, nil
}

// History fetches the full daily history for symbol.
func (c *ChartAPIClient) History(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	c.log.WithField("symbol", symbol).Debug("requesting max daily history")

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":                "max",
			"interval":             "1d",
			"includeAdjustedClose": "true",
			"events":               "div,splits",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	var payload chartResponse
	decodeErr := json.Unmarshal(resp.Body(), &payload)

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	if resp.StatusCode() != http.StatusOK {
		if decodeErr == nil && payload.Chart.Error != nil {
			return nil, fmt.Errorf("chart API error %d for %s: %s", resp.StatusCode(), symbol, payload.Chart.Error.Description)
		}
		return nil, fmt.Errorf("chart API error %d for %s: %s", resp.StatusCode(), symbol, resp.String())
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to parse chart response for %s: %w", symbol, decodeErr)
	}

	bars, err := c.decode(symbol, &payload)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	c.log.WithFields(logrus.Fields{"symbol": symbol, "bars": len(bars)}).Debug("history received")
	return &models.PriceHistory{Symbol: symbol, Bars: bars}, nil
}

func (c *ChartAPIClient) decode(symbol string, payload *chartResponse) ([]models.Bar, error) {
	if e := payload.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("chart API error for %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, c.loc)

	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		open, high, low, closePrice := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}

		bar := models.Bar{
			Date:     tradingDay(ts, loc),
			Open:     decimal.NewFromFloat(*open),
			High:     decimal.NewFromFloat(*high),
			Low:      decimal.NewFromFloat(*low),
			Close:    decimal.NewFromFloat(*closePrice),
			AdjClose: decimal.NewFromFloat(*closePrice),
		}
		if a := at(adj, i); a != nil {
			bar.AdjClose = decimal.NewFromFloat(*a)
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return normalizeBars(bars), nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
