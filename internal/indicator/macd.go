package indicator

import (
	"chartengine/internal/fixed"
	"chartengine/internal/model"
)

// MACDResult holds the three MACD series. Histogram points carry a color:
// model.ColorUp when non-negative, model.ColorDown otherwise.
type MACDResult struct {
	MACDLine   []model.IndicatorPoint `json:"macdLine"`
	SignalLine []model.IndicatorPoint `json:"signalLine"`
	Histogram  []model.IndicatorPoint `json:"histogram"`
}

// CalcMACD computes EMA(fast) − EMA(slow) joined by time, a signal line that
// is an EMA(signal) of the MACD values seeded by their simple mean, and the
// histogram MACD − signal joined by time.
//
// Each stage degrades to empty output when there is not enough history.
func CalcMACD(bars []model.Bar, fast, slow, signal int) MACDResult {
	res := MACDResult{
		MACDLine:   []model.IndicatorPoint{},
		SignalLine: []model.IndicatorPoint{},
		Histogram:  []model.IndicatorPoint{},
	}

	emaFast := CalcEMA(bars, fast)
	emaSlow := CalcEMA(bars, slow)
	if len(emaFast) == 0 || len(emaSlow) == 0 {
		return res
	}

	for _, f := range emaFast {
		if i := model.PointAt(emaSlow, f.Time); i >= 0 {
			res.MACDLine = append(res.MACDLine, model.IndicatorPoint{Time: f.Time, Value: fixed.Price(f.Value - emaSlow[i].Value)})
		}
	}

	if signal <= 0 || len(res.MACDLine) < signal {
		return res
	}

	sig := NewEMA(signal)
	for _, m := range res.MACDLine {
		sig.add(m.Value)
		if sig.Ready() {
			res.SignalLine = append(res.SignalLine, model.IndicatorPoint{Time: m.Time, Value: fixed.Price(sig.Value())})
		}
	}

	for _, m := range res.MACDLine {
		i := model.PointAt(res.SignalLine, m.Time)
		if i < 0 {
			continue
		}
		diff := m.Value - res.SignalLine[i].Value
		color := model.ColorUp
		if diff < 0 {
			color = model.ColorDown
		}
		res.Histogram = append(res.Histogram, model.IndicatorPoint{Time: m.Time, Value: fixed.Price(diff), Color: color})
	}
	return res
}

// DefaultMACD is CalcMACD with 12/26/9.
func DefaultMACD(bars []model.Bar) MACDResult {
	return CalcMACD(bars, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)
}
