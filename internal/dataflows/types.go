package dataflows

import (
	"context"
	"errors"

	"github.com/dyike/CandleCorr/config"
	"github.com/dyike/CandleCorr/models"
)

// Config is an alias for the main application config
type Config = config.Config

var (
	// ErrNoData means the provider knows nothing about the symbol or
	// returned an empty history for it.
	ErrNoData        = errors.New("no data available")
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidDate   = errors.New("invalid date")
)

// HistoryProvider returns the maximal daily price history for a symbol.
type HistoryProvider interface {
	History(ctx context.Context, symbol string) (*models.PriceHistory, error)
}
