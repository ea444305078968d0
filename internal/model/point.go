package model

// Histogram colors carried on MACD histogram points.
const (
	ColorUp   = "#26a69a"
	ColorDown = "#ef5350"
)

// IndicatorPoint is one value of an indicator series, keyed by bar time.
// Color is only set for histogram-style outputs.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// PointAt returns the index of the point with the given time, or -1.
// Series are sorted by time, so this is a binary search.
func PointAt(points []IndicatorPoint, t int64) int {
	lo, hi := 0, len(points)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if points[mid].Time < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(points) && points[lo].Time == t {
		return lo
	}
	return -1
}

// IndicatorResult is a live indicator value for a symbol, produced when a
// tick is applied to a warmed-up indicator without closing a bar.
type IndicatorResult struct {
	Name   string  `json:"name"` // e.g. "SMA_20", "RSI_14"
	Symbol string  `json:"symbol"`
	Value  float64 `json:"value"`
	Ready  bool    `json:"ready"`
	Live   bool    `json:"live"`
}
