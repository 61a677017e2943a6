// Package dataflows fetches daily price histories from Yahoo Finance.
package dataflows

import (
	"fmt"

	"github.com/dyike/CandleCorr/config"
)

// NewProvider builds the history provider selected by config.DataBackend.
func NewProvider(cfg *Config) (HistoryProvider, error) {
	switch cfg.DataBackend {
	case config.BackendChartAPI, "":
		return NewChartAPIClient(cfg)
	case config.BackendFinanceGo:
		return NewYahooFinanceClient(cfg)
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
