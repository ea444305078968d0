package model

import (
	"encoding/json"
	"time"
)

// Tick is one simulated live price update for a symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"` // UTC
}

// Channel returns the pub/sub channel name: "pub:tick:{symbol}".
func (t *Tick) Channel() string {
	return "pub:tick:" + t.Symbol
}

// JSON returns the JSON-encoded tick.
func (t *Tick) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
