package indicator

import (
	"log"
	"sync"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
)

// symbolIndicators holds live indicator instances for one symbol.
type symbolIndicators struct {
	indicators []Indicator
	specs      []Spec
}

// Engine keeps streaming indicators per symbol so live ticks can be annotated
// with the values a forming bar would produce.
type Engine struct {
	specs []Spec

	mu    sync.Mutex
	state map[string]*symbolIndicators
}

// NewEngine creates an engine computing the given indicator specs.
// Specs that cannot be instantiated are dropped.
func NewEngine(specs []Spec) *Engine {
	valid := make([]Spec, 0, len(specs))
	for _, s := range specs {
		if _, err := New(s); err != nil {
			log.Printf("[indicator] engine: dropping spec %+v: %v", s, err)
			continue
		}
		valid = append(valid, s)
	}
	return &Engine{
		specs: valid,
		state: make(map[string]*symbolIndicators, 16),
	}
}

// Specs returns the configured indicator specs.
func (e *Engine) Specs() []Spec {
	out := make([]Spec, len(e.specs))
	copy(out, e.specs)
	return out
}

// Warm replaces the symbol's state with indicators fed the given history.
func (e *Engine) Warm(symbol string, bars []model.Bar) {
	si := e.newSymbolIndicators()
	for _, b := range bars {
		for _, ind := range si.indicators {
			ind.Update(b)
		}
	}
	e.mu.Lock()
	e.state[symbol] = si
	e.mu.Unlock()
}

// Process feeds a closed bar for the symbol and returns the updated values.
// A symbol seen for the first time starts with fresh indicators.
func (e *Engine) Process(symbol string, bar model.Bar) []model.IndicatorResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	si, ok := e.state[symbol]
	if !ok {
		si = e.newSymbolIndicators()
		e.state[symbol] = si
	}

	results := make([]model.IndicatorResult, 0, len(si.indicators))
	for i, ind := range si.indicators {
		ind.Update(bar)
		results = append(results, model.IndicatorResult{
			Name:   si.specs[i].Label(),
			Symbol: symbol,
			Value:  round(si.specs[i], ind.Value()),
			Ready:  ind.Ready(),
		})
	}
	return results
}

// ProcessPeek computes live values for a forming bar closing at price.
// Does NOT mutate indicator state. Returns nil if the symbol was never warmed.
func (e *Engine) ProcessPeek(symbol string, price float64) []model.IndicatorResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	si, ok := e.state[symbol]
	if !ok {
		return nil
	}

	results := make([]model.IndicatorResult, 0, len(si.indicators))
	for i, ind := range si.indicators {
		results = append(results, model.IndicatorResult{
			Name:   si.specs[i].Label(),
			Symbol: symbol,
			Value:  round(si.specs[i], ind.Peek(price)),
			Ready:  ind.Ready(),
			Live:   true,
		})
	}
	return results
}

func (e *Engine) newSymbolIndicators() *symbolIndicators {
	inds := make([]Indicator, 0, len(e.specs))
	for _, s := range e.specs {
		ind, _ := New(s) // specs validated in NewEngine
		inds = append(inds, ind)
	}
	return &symbolIndicators{indicators: inds, specs: e.specs}
}

func round(spec Spec, v float64) float64 {
	if spec.Type == "RSI" {
		return fixed.Oscillator(v)
	}
	return fixed.Price(v)
}
