// Package synth produces deterministic synthetic OHLCV sequences from the
// static symbol and timeframe tables.
//
// For a fixed (symbol, timeframe) and wall-clock second the output is
// identical across calls; the only external input is the clock that anchors
// the most recent bar.
package synth

import (
	"math"
	"time"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
	"chartengine/internal/prng"
)

const (
	// trend is the per-bar upward drift added to every change draw.
	trend = 0.0001

	// volumeScaleHigh applies to symbols whose base price is above
	// highPriceBase; everything else uses volumeScaleLow.
	highPriceBase   = 1000
	volumeScaleHigh = 0.5
	volumeScaleLow  = 10
)

// Seed derives the generator seed for a (symbol, timeframe) pair.
// Only the first character of each contributes, so labels such as "1m" and
// "1D" share a seed.
func Seed(symbol, timeframe string) uint32 {
	var s uint32
	if symbol != "" {
		s += uint32(firstCode(symbol)) * 997
	}
	if timeframe != "" {
		s += uint32(firstCode(timeframe)) * 31
	}
	return s
}

// firstCode returns the UTF-16 code unit of the first character.
func firstCode(s string) rune {
	r := []rune(s)[0]
	if r > 0xffff {
		// high surrogate
		return ((r - 0x10000) >> 10) + 0xd800
	}
	return r
}

// Synthesizer generates bar sequences anchored at Now.
type Synthesizer struct {
	Now func() time.Time
}

// New creates a Synthesizer that anchors on the wall clock.
func New() *Synthesizer {
	return &Synthesizer{Now: time.Now}
}

var defaultSynth = New()

// Generate is Synthesizer.Generate on the wall-clock synthesizer.
func Generate(symbol, timeframe string) []model.Bar {
	return defaultSynth.Generate(symbol, timeframe)
}

// Generate returns the synthetic sequence for a symbol and timeframe label.
// Unknown symbols or timeframes yield an empty sequence.
func (s *Synthesizer) Generate(symbol, timeframe string) []model.Bar {
	profile, ok := model.Profile(symbol)
	if !ok {
		return []model.Bar{}
	}
	tf, ok := model.Timeframe(timeframe)
	if !ok {
		return []model.Bar{}
	}
	return s.GenerateSpec(profile, tf)
}

// GenerateSpec generates from explicit profile and timeframe values.
func (s *Synthesizer) GenerateSpec(profile model.SymbolProfile, tf model.TimeframeSpec) []model.Bar {
	if tf.BarCount <= 0 || tf.PeriodSeconds <= 0 {
		return []model.Bar{}
	}

	rand := prng.Func(Seed(profile.Symbol, tf.Label))
	period := int64(tf.PeriodSeconds)
	now := s.now().Unix()

	start := now - period*int64(tf.BarCount)
	start = floorDiv(start, period) * period

	volScale := float64(volumeScaleLow)
	if profile.Base > highPriceBase {
		volScale = volumeScaleHigh
	}

	vol := profile.Volatility
	price := profile.Base
	t := start
	bars := make([]model.Bar, 0, tf.BarCount)

	for i := 0; i < tf.BarCount; i++ {
		change := (rand() - 0.49 + trend) * vol
		openPx := price
		closePx := openPx * (1 + change)
		high := math.Max(openPx, closePx) * (1 + rand()*vol*0.5)
		low := math.Min(openPx, closePx) * (1 - rand()*vol*0.5)
		volume := math.Floor(rand()*5000+1000) * volScale

		bars = append(bars, model.Bar{
			Time:   t,
			Open:   fixed.Price(openPx),
			High:   fixed.Price(high),
			Low:    fixed.Price(low),
			Close:  fixed.Price(closePx),
			Volume: fixed.Volume(volume),
		})

		price = closePx
		t += period
	}
	return bars
}

func (s *Synthesizer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
