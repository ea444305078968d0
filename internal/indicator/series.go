package indicator

import (
	"math"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
)

// Default parameters used by the Default* helpers.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerStdDev = 2.0
	DefaultRSIPeriod       = 14
	DefaultMACDFast        = 12
	DefaultMACDSlow        = 26
	DefaultMACDSignal      = 9
)

// CalcSMA returns the simple moving average of close over the trailing
// period bars, one point per bar from index period-1 onward.
func CalcSMA(bars []model.Bar, period int) []model.IndicatorPoint {
	if period <= 0 || len(bars) < period {
		return []model.IndicatorPoint{}
	}
	sma := NewSMA(period)
	out := make([]model.IndicatorPoint, 0, len(bars)-period+1)
	for _, b := range bars {
		sma.Update(b)
		if sma.Ready() {
			out = append(out, model.IndicatorPoint{Time: b.Time, Value: fixed.Price(sma.Value())})
		}
	}
	return out
}

// CalcEMA returns the exponential moving average of close, seeded by the SMA
// of the first period closes, one point per bar from index period-1 onward.
func CalcEMA(bars []model.Bar, period int) []model.IndicatorPoint {
	if period <= 0 || len(bars) < period {
		return []model.IndicatorPoint{}
	}
	ema := NewEMA(period)
	out := make([]model.IndicatorPoint, 0, len(bars)-period+1)
	for _, b := range bars {
		ema.Update(b)
		if ema.Ready() {
			out = append(out, model.IndicatorPoint{Time: b.Time, Value: fixed.Price(ema.Value())})
		}
	}
	return out
}

// CalcRSI returns Wilder's RSI, one point per bar from index period onward.
// Values are rounded to 2 places.
func CalcRSI(bars []model.Bar, period int) []model.IndicatorPoint {
	if period <= 0 || len(bars) < period+1 {
		return []model.IndicatorPoint{}
	}
	rsi := NewRSI(period)
	out := make([]model.IndicatorPoint, 0, len(bars)-period)
	for _, b := range bars {
		rsi.Update(b)
		if rsi.Ready() {
			out = append(out, model.IndicatorPoint{Time: b.Time, Value: fixed.Oscillator(rsi.Value())})
		}
	}
	return out
}

// DefaultRSI is CalcRSI with period 14.
func DefaultRSI(bars []model.Bar) []model.IndicatorPoint {
	return CalcRSI(bars, DefaultRSIPeriod)
}

// windowMean sums closes in order and divides by the window length.
func windowMean(window []model.Bar) float64 {
	sum := 0.0
	for _, b := range window {
		sum += b.Close
	}
	return sum / float64(len(window))
}

// populationStdDev is the standard deviation of the window's closes around mean.
func populationStdDev(window []model.Bar, mean float64) float64 {
	variance := 0.0
	for _, b := range window {
		d := b.Close - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(window)))
}
