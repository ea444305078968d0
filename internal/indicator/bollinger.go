package indicator

import (
	"chartengine/internal/fixed"
	"chartengine/internal/model"
)

// Bands holds three parallel Bollinger series aligned by time.
type Bands struct {
	Upper  []model.IndicatorPoint `json:"upper"`
	Middle []model.IndicatorPoint `json:"middle"`
	Lower  []model.IndicatorPoint `json:"lower"`
}

// CalcBollinger returns SMA(period) ± stdDev population standard deviations
// of the trailing period closes.
func CalcBollinger(bars []model.Bar, period int, stdDev float64) Bands {
	bands := Bands{
		Upper:  []model.IndicatorPoint{},
		Middle: []model.IndicatorPoint{},
		Lower:  []model.IndicatorPoint{},
	}
	if period <= 0 || len(bars) < period {
		return bands
	}

	n := len(bars) - period + 1
	bands.Upper = make([]model.IndicatorPoint, 0, n)
	bands.Middle = make([]model.IndicatorPoint, 0, n)
	bands.Lower = make([]model.IndicatorPoint, 0, n)

	for i := period - 1; i < len(bars); i++ {
		window := bars[i-period+1 : i+1]
		mean := windowMean(window)
		sd := populationStdDev(window, mean)
		t := bars[i].Time

		bands.Upper = append(bands.Upper, model.IndicatorPoint{Time: t, Value: fixed.Price(mean + stdDev*sd)})
		bands.Middle = append(bands.Middle, model.IndicatorPoint{Time: t, Value: fixed.Price(mean)})
		bands.Lower = append(bands.Lower, model.IndicatorPoint{Time: t, Value: fixed.Price(mean - stdDev*sd)})
	}
	return bands
}

// DefaultBollinger is CalcBollinger with period 20 and 2 standard deviations.
func DefaultBollinger(bars []model.Bar) Bands {
	return CalcBollinger(bars, DefaultBollingerPeriod, DefaultBollingerStdDev)
}
