// Package indicator provides technical indicator calculations over bar data.
//
// Two forms are offered. The Calc* series functions (SMA, EMA, Bollinger,
// RSI, MACD) are pure transforms from a bar sequence to indicator points;
// they never mutate their input and round every output value. The streaming
// indicators (*SMA, *EMA, *RSI) implement Indicator and are fed one bar at a
// time; the series functions and the live Engine are built on them.
package indicator

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"chartengine/internal/model"
)

// Indicator is the interface for streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "EMA").
	Name() string

	// Update feeds a closed bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Peek computes what Value() would be if a bar with this close were
	// added next, WITHOUT mutating internal state.
	Peek(price float64) float64
}

// Spec names a streaming indicator and its period, e.g. {"RSI", 14}.
type Spec struct {
	Type   string // "SMA", "EMA", "RSI"
	Period int
}

// Label returns "TYPE_PERIOD", e.g. "SMA_20".
func (s Spec) Label() string {
	return s.Type + "_" + strconv.Itoa(s.Period)
}

// New creates a streaming indicator for the spec.
func New(spec Spec) (Indicator, error) {
	if spec.Period <= 0 {
		return nil, fmt.Errorf("indicator %s: period must be positive, got %d", spec.Type, spec.Period)
	}
	switch spec.Type {
	case "SMA":
		return NewSMA(spec.Period), nil
	case "EMA":
		return NewEMA(spec.Period), nil
	case "RSI":
		return NewRSI(spec.Period), nil
	default:
		return nil, fmt.Errorf("indicator %q: unknown type", spec.Type)
	}
}

// ParseSpecs parses "SMA:20,EMA:9,RSI:14". Invalid items are skipped.
func ParseSpecs(s string) []Spec {
	var specs []Spec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seg := strings.SplitN(part, ":", 2)
		if len(seg) != 2 {
			log.Printf("[indicator] skipping invalid spec: %q", part)
			continue
		}
		period, err := strconv.Atoi(strings.TrimSpace(seg[1]))
		spec := Spec{Type: strings.ToUpper(strings.TrimSpace(seg[0])), Period: period}
		if err != nil {
			log.Printf("[indicator] skipping invalid spec: %q", part)
			continue
		}
		if _, err := New(spec); err != nil {
			log.Printf("[indicator] skipping spec %q: %v", part, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}
