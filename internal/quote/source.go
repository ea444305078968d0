package quote

import (
	"context"
	"errors"
	"log"
	"time"

	"chartengine/internal/model"
	"chartengine/internal/synth"
)

// Origin names where a served series came from.
type Origin string

const (
	OriginSynthetic Origin = "synthetic"
	OriginCache     Origin = "cache"
	OriginProvider  Origin = "provider"
	OriginArchive   Origin = "archive"
)

// archiveLimit bounds how much archived history is served as a fallback.
const archiveLimit = 5000

// Series is a bar sequence plus the origin that served it.
type Series struct {
	Symbol    string      `json:"symbol"`
	Timeframe string      `json:"timeframe"`
	Origin    Origin      `json:"origin"`
	Bars      []model.Bar `json:"bars"`
}

// Source resolves bar series. With no provider every request is served by
// the synthesizer. With a provider the lookup order is cache, provider,
// archive, synthesizer; failures along the way are logged and never
// surface to the caller.
type Source struct {
	provider Provider
	cache    BarCache
	archive  Archive
	synth    *synth.Synthesizer

	// Optional observers, typically wired to metrics.
	OnServe         func(origin Origin, elapsed time.Duration)
	OnCacheLookup   func(hit bool)
	OnProviderError func(symbol, timeframe string, err error)
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithProvider enables real data from p.
func WithProvider(p Provider) SourceOption {
	return func(s *Source) { s.provider = p }
}

// WithCache puts c in front of the provider.
func WithCache(c BarCache) SourceOption {
	return func(s *Source) { s.cache = c }
}

// WithArchive saves provider results to a and reads them back when the
// provider fails.
func WithArchive(a Archive) SourceOption {
	return func(s *Source) { s.archive = a }
}

// WithSynthesizer replaces the wall-clock synthesizer.
func WithSynthesizer(g *synth.Synthesizer) SourceOption {
	return func(s *Source) {
		if g != nil {
			s.synth = g
		}
	}
}

// NewSource creates a Source.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{synth: synth.New()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RealData reports whether a provider is configured.
func (s *Source) RealData() bool { return s.provider != nil }

// Bars returns the series for symbol and timeframe. It never fails; the
// synthesizer yields an empty sequence for symbols it does not know.
func (s *Source) Bars(ctx context.Context, symbol, timeframe string) Series {
	start := time.Now()
	bars, origin := s.resolve(ctx, symbol, timeframe)
	if s.OnServe != nil {
		s.OnServe(origin, time.Since(start))
	}
	return Series{Symbol: symbol, Timeframe: timeframe, Origin: origin, Bars: bars}
}

func (s *Source) resolve(ctx context.Context, symbol, timeframe string) ([]model.Bar, Origin) {
	if s.provider == nil {
		return s.synth.Generate(symbol, timeframe), OriginSynthetic
	}

	if s.cache != nil {
		bars, err := s.cache.GetBars(ctx, symbol, timeframe)
		hit := err == nil && len(bars) > 0
		if s.OnCacheLookup != nil {
			s.OnCacheLookup(hit)
		}
		if hit {
			return bars, OriginCache
		}
	}

	bars, err := s.fetch(ctx, symbol, timeframe)
	if err == nil {
		s.store(ctx, symbol, timeframe, bars)
		return bars, OriginProvider
	}
	if s.OnProviderError != nil {
		s.OnProviderError(symbol, timeframe, err)
	}
	log.Printf("[quote] %s %s: %v (falling back)", symbol, timeframe, err)

	if s.archive != nil {
		archived, aerr := s.archive.LoadBars(ctx, symbol, timeframe, archiveLimit)
		if aerr == nil && len(archived) > 0 {
			return archived, OriginArchive
		}
		if aerr != nil {
			log.Printf("[quote] archive %s %s: %v", symbol, timeframe, aerr)
		}
	}

	return s.synth.Generate(symbol, timeframe), OriginSynthetic
}

// fetch calls the provider and rejects empty or malformed series.
func (s *Source) fetch(ctx context.Context, symbol, timeframe string) ([]model.Bar, error) {
	bars, err := s.provider.Bars(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	if err := model.ValidateSeries(bars); err != nil {
		return nil, errors.Join(ErrNoData, err)
	}
	return bars, nil
}

// store writes a fresh provider series to the cache and archive. Failures
// only cost a future lookup, so they are logged and dropped.
func (s *Source) store(ctx context.Context, symbol, timeframe string, bars []model.Bar) {
	if s.cache != nil {
		if err := s.cache.PutBars(ctx, symbol, timeframe, bars); err != nil {
			log.Printf("[quote] cache put %s %s: %v", symbol, timeframe, err)
		}
	}
	if s.archive != nil {
		if err := s.archive.SaveBars(ctx, symbol, timeframe, bars); err != nil {
			log.Printf("[quote] archive save %s %s: %v", symbol, timeframe, err)
		}
	}
}

// Search forwards to the provider when it supports search. Failures and
// missing support yield an empty list.
func (s *Source) Search(ctx context.Context, query string) []SearchResult {
	searcher, ok := s.provider.(Searcher)
	if !ok {
		return []SearchResult{}
	}
	results, err := searcher.Search(ctx, query)
	if err != nil {
		log.Printf("[quote] search %q: %v", query, err)
		return []SearchResult{}
	}
	return results
}
