package model

import (
	"fmt"
	"math"
)

// Bar is one OHLCV sample for a fixed period.
// Time is the bucket start in Unix seconds; prices are decimal values already
// quantized to 4 places and volume to 2 places.
type Bar struct {
	Time   int64   `json:"time" parquet:"time"`
	Open   float64 `json:"open" parquet:"open"`
	High   float64 `json:"high" parquet:"high"`
	Low    float64 `json:"low" parquet:"low"`
	Close  float64 `json:"close" parquet:"close"`
	Volume float64 `json:"volume" parquet:"volume"`
}

// Validate reports the first violated OHLC invariant, or nil.
func (b Bar) Validate() error {
	if b.Time <= 0 {
		return fmt.Errorf("bar time %d: must be positive", b.Time)
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bar %d: non-finite value", b.Time)
		}
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("bar %d: low %.4f above body", b.Time, b.Low)
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("bar %d: high %.4f below body", b.Time, b.High)
	}
	return nil
}

// ValidateSeries checks every bar plus strictly increasing time.
// Externally fetched sequences must pass this before reaching the indicators.
func ValidateSeries(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		if i > 0 && b.Time <= bars[i-1].Time {
			return fmt.Errorf("index %d: time %d not after %d", i, b.Time, bars[i-1].Time)
		}
	}
	return nil
}

// Last returns the final bar of the sequence and false when it is empty.
func Last(bars []Bar) (Bar, bool) {
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[len(bars)-1], true
}
