// Package market fetches quotes and daily candles from external data
// providers.
package market

import (
	"context"
	"errors"

	"ragoalert/internal/models"
)

// ErrNoData is returned when a provider response carries no usable
// quote or candle data for a symbol.
var ErrNoData = errors.New("no market data for symbol")

// PriceProvider fetches the latest traded price for a symbol.
type PriceProvider interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// CandleProvider fetches historical daily candles for a symbol.
type CandleProvider interface {
	DailyCandles(ctx context.Context, symbol string, days int) ([]models.Candle, error)
}

// SymbolRanker resolves a ranked symbol list, used to expand aggregate
// references like TOP_NASDAQ.
type SymbolRanker interface {
	TopByVolume(ctx context.Context, n int) ([]string, error)
}
