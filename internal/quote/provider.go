// Package quote supplies bar series for the chart: real history from an
// external quote provider when one is configured, with a cache in front and
// the deterministic synthesizer behind it as the last resort.
package quote

import (
	"context"
	"errors"

	"chartengine/internal/model"
)

// ErrNoData is returned when a provider answers but has no usable bars.
var ErrNoData = errors.New("quote: no data")

// Provider fetches real historical bars.
type Provider interface {
	Bars(ctx context.Context, symbol, timeframe string) ([]model.Bar, error)
}

// Searcher looks up tradable symbols by free text.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchResult is one symbol search hit.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange"`
}

// BarCache is the read-through cache consulted before the provider.
type BarCache interface {
	GetBars(ctx context.Context, symbol, timeframe string) ([]model.Bar, error)
	PutBars(ctx context.Context, symbol, timeframe string, bars []model.Bar) error
}

// Archive persists fetched series and serves them when the provider fails.
type Archive interface {
	SaveBars(ctx context.Context, symbol, timeframe string, bars []model.Bar) error
	LoadBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error)
}
