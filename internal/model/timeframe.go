package model

import "sort"

// TimeframeSpec is the period length and history depth for a bar sequence.
type TimeframeSpec struct {
	Label         string `json:"label"`
	PeriodSeconds int    `json:"period_seconds"`
	BarCount      int    `json:"bar_count"`
}

var timeframeSpecs = map[string]TimeframeSpec{
	"1m":  {Label: "1m", PeriodSeconds: 60, BarCount: 300},
	"5m":  {Label: "5m", PeriodSeconds: 300, BarCount: 300},
	"15m": {Label: "15m", PeriodSeconds: 900, BarCount: 300},
	"1h":  {Label: "1h", PeriodSeconds: 3600, BarCount: 500},
	"4h":  {Label: "4h", PeriodSeconds: 14400, BarCount: 500},
	"1D":  {Label: "1D", PeriodSeconds: 86400, BarCount: 500},
	"1W":  {Label: "1W", PeriodSeconds: 604800, BarCount: 300},
}

// Timeframe looks up a timeframe by label ("1m", "1D", ...).
func Timeframe(label string) (TimeframeSpec, bool) {
	tf, ok := timeframeSpecs[label]
	return tf, ok
}

// TimeframeSpecs returns a copy of the timeframe table.
func TimeframeSpecs() map[string]TimeframeSpec {
	out := make(map[string]TimeframeSpec, len(timeframeSpecs))
	for k, v := range timeframeSpecs {
		out[k] = v
	}
	return out
}

// Timeframes returns every timeframe ordered by period length.
func Timeframes() []TimeframeSpec {
	out := make([]TimeframeSpec, 0, len(timeframeSpecs))
	for _, tf := range timeframeSpecs {
		out = append(out, tf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodSeconds < out[j].PeriodSeconds })
	return out
}
