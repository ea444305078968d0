package model

import "sort"

// SymbolProfile is the static statistical configuration of a simulated symbol.
// Volatility is the fractional per-bar dispersion (0.02 = 2%).
type SymbolProfile struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Base       float64 `json:"base"`
	Volatility float64 `json:"volatility"`
}

var symbolProfiles = map[string]SymbolProfile{
	"BTC-USD": {Symbol: "BTC-USD", Name: "Bitcoin", Base: 29000, Volatility: 0.022},
	"ETH-USD": {Symbol: "ETH-USD", Name: "Ethereum", Base: 1850, Volatility: 0.025},
	"AAPL":    {Symbol: "AAPL", Name: "Apple Inc.", Base: 188, Volatility: 0.012},
	"TSLA":    {Symbol: "TSLA", Name: "Tesla", Base: 225, Volatility: 0.030},
	"SPY":     {Symbol: "SPY", Name: "S&P 500 ETF", Base: 445, Volatility: 0.008},
	"NVDA":    {Symbol: "NVDA", Name: "NVIDIA", Base: 490, Volatility: 0.028},
	"META":    {Symbol: "META", Name: "Meta", Base: 320, Volatility: 0.018},
	"MSFT":    {Symbol: "MSFT", Name: "Microsoft", Base: 375, Volatility: 0.010},
}

// Profile looks up the profile for a symbol.
func Profile(symbol string) (SymbolProfile, bool) {
	p, ok := symbolProfiles[symbol]
	return p, ok
}

// SymbolProfiles returns a copy of the profile table.
func SymbolProfiles() map[string]SymbolProfile {
	out := make(map[string]SymbolProfile, len(symbolProfiles))
	for k, v := range symbolProfiles {
		out[k] = v
	}
	return out
}

// Symbols returns all known symbol identifiers in sorted order.
func Symbols() []string {
	out := make([]string, 0, len(symbolProfiles))
	for k := range symbolProfiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
