// Package fixed quantizes float values to a fixed number of decimal places.
//
// Every price, volume and indicator value leaving the engine goes through
// this package so repeated computations on identical input are byte-identical.
package fixed

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	PricePlaces      = 4
	VolumePlaces     = 2
	OscillatorPlaces = 2
)

// Round rounds v to the given number of decimal places, half away from zero
// on the exact binary value of v (so 1.005 rounds to 1.00, as toFixed does).
// NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloatWithExponent(v, -places).InexactFloat64()
}

// Price rounds to 4 places.
func Price(v float64) float64 { return Round(v, PricePlaces) }

// Volume rounds to 2 places.
func Volume(v float64) float64 { return Round(v, VolumePlaces) }

// Oscillator rounds bounded oscillators (RSI) to 2 places.
func Oscillator(v float64) float64 { return Round(v, OscillatorPlaces) }
