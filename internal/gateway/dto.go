package gateway

import (
	"time"

	"chartengine/internal/indicator"
	"chartengine/internal/model"
	"chartengine/internal/quote"
)

// SymbolInfo is the REST response item for /api/symbols.
type SymbolInfo struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Base       float64 `json:"base"`
	Volatility float64 `json:"volatility"`
	Price      float64 `json:"price"`
}

// IndicatorOut is the REST response for /api/indicators. Exactly one of
// Points, Bands and MACD is set, depending on Kind.
type IndicatorOut struct {
	Symbol    string                 `json:"symbol"`
	Timeframe string                 `json:"timeframe"`
	Kind      string                 `json:"kind"`
	Origin    quote.Origin           `json:"origin"`
	Points    []model.IndicatorPoint `json:"points,omitempty"`
	Bands     *indicator.Bands       `json:"bands,omitempty"`
	MACD      *indicator.MACDResult  `json:"macd,omitempty"`
}

// PriceOut is the REST response for /api/price.
type PriceOut struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// TickMessage is pushed to WebSocket clients for every tick of a subscribed
// symbol. ChangePct is relative to the symbol's base price.
type TickMessage struct {
	Type       string                  `json:"type"`
	Symbol     string                  `json:"symbol"`
	Price      float64                 `json:"price"`
	TS         time.Time               `json:"ts"`
	ChangePct  float64                 `json:"change_pct"`
	Initial    bool                    `json:"initial,omitempty"`
	Indicators []model.IndicatorResult `json:"indicators,omitempty"`
}

// ControlMsg is a client → server WebSocket message.
//
//	{"type":"subscribe","symbols":["AAPL","BTC-USD"]}
//	{"type":"unsubscribe","symbols":["AAPL"]}
//	{"type":"ping","ping":1700000000000}
type ControlMsg struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
	Ping    int64    `json:"ping"`
}

// errorOut is the JSON body of every non-2xx REST response and of WebSocket
// error messages.
type errorOut struct {
	Type  string `json:"type,omitempty"`
	Error string `json:"error"`
}
