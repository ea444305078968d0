// Package tickhub simulates live last-price updates for the known symbols and
// fans them out to per-symbol subscribers.
//
// A Hub owns all of its state, so independent simulations (one per test, or
// one per server) never share prices or subscribers.
package tickhub

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
	"chartengine/internal/synth"
)

const (
	// DefaultInterval is the tick cadence.
	DefaultInterval = time.Second

	// seedTimeframe is the history whose tail close seeds each last price.
	seedTimeframe = "1D"

	// Each tick moves price by (draw - 0.495) * volatility/20.
	tickBias      = 0.495
	tickVolDivide = 20
)

// Callback receives the new price of a subscribed symbol.
type Callback func(price float64)

// Hub holds the last price of every symbol and the subscribers to them.
type Hub struct {
	interval time.Duration
	rand     func() float64
	now      func() time.Time
	synth    *synth.Synthesizer
	profiles map[string]model.SymbolProfile
	symbols  []string // stable tick order
	onTick   []func(model.Tick)
	onDrop   func(symbol string)
	logger   *slog.Logger

	mu     sync.RWMutex
	prices map[string]float64
	subs   map[string][]*Subscription
	nextID uint64

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithRand sets the source of uniform [0,1) draws used for price moves.
func WithRand(fn func() float64) Option {
	return func(h *Hub) { h.rand = fn }
}

// WithClock sets the clock stamped on emitted ticks.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithSynthesizer sets the synthesizer used to seed initial prices.
func WithSynthesizer(s *synth.Synthesizer) Option {
	return func(h *Hub) { h.synth = s }
}

// WithProfiles replaces the simulated symbol set.
func WithProfiles(profiles map[string]model.SymbolProfile) Option {
	return func(h *Hub) { h.profiles = profiles }
}

// WithOnTick registers a hook invoked for every tick of every symbol,
// after the symbol's subscribers.
func WithOnTick(fn func(model.Tick)) Option {
	return func(h *Hub) { h.onTick = append(h.onTick, fn) }
}

// WithOnDrop sets the hook called when a channel subscriber is full and a
// tick is dropped for it.
func WithOnDrop(fn func(symbol string)) Option {
	return func(h *Hub) { h.onDrop = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// New creates a Hub and seeds every last price from the tail close of a
// freshly generated daily sequence.
func New(opts ...Option) *Hub {
	h := &Hub{
		interval: DefaultInterval,
		now:      time.Now,
		synth:    synth.New(),
		profiles: model.SymbolProfiles(),
		logger:   slog.Default(),
		prices:   make(map[string]float64),
		subs:     make(map[string][]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.rand == nil {
		h.rand = rand.New(rand.NewSource(time.Now().UnixNano())).Float64
	}

	for sym, p := range h.profiles {
		h.symbols = append(h.symbols, sym)
		price := p.Base
		tf, _ := model.Timeframe(seedTimeframe)
		if last, ok := model.Last(h.synth.GenerateSpec(p, tf)); ok {
			price = last.Close
		}
		h.prices[sym] = price
	}
	sort.Strings(h.symbols)
	return h
}

// Symbols returns the simulated symbols in tick order.
func (h *Hub) Symbols() []string {
	out := make([]string, len(h.symbols))
	copy(out, h.symbols)
	return out
}

// LastPrice returns the current price of symbol, its base price when no
// price has been recorded, or 0 for an unknown symbol.
func (h *Hub) LastPrice(symbol string) float64 {
	h.mu.RLock()
	p := h.prices[symbol]
	h.mu.RUnlock()
	if p != 0 {
		return p
	}
	if prof, ok := h.profiles[symbol]; ok {
		return prof.Base
	}
	return 0
}

// Step performs one tick: every symbol's price is perturbed and its
// subscribers are notified in registration order.
func (h *Hub) Step() {
	type note struct {
		tick model.Tick
		subs []*Subscription
	}

	ts := h.now().UTC()
	notes := make([]note, 0, len(h.symbols))

	h.mu.Lock()
	for _, sym := range h.symbols {
		vol := h.profiles[sym].Volatility / tickVolDivide
		change := (h.rand() - tickBias) * vol
		price := fixed.Price(h.prices[sym] * (1 + change))
		h.prices[sym] = price

		subs := make([]*Subscription, len(h.subs[sym]))
		copy(subs, h.subs[sym])
		notes = append(notes, note{tick: model.Tick{Symbol: sym, Price: price, TS: ts}, subs: subs})
	}
	h.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the hub.
	for _, n := range notes {
		for _, s := range n.subs {
			s.deliver(n.tick)
		}
		for _, fn := range h.onTick {
			fn(n.tick)
		}
	}
}

// Start launches the tick loop. Calling Start on a running hub is a no-op.
// The loop stops when ctx is cancelled or Stop is called.
func (h *Hub) Start(ctx context.Context) {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.loopAlive() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	h.cancel = cancel
	h.done = done
	h.running = true

	go func() {
		defer close(done)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		h.logger.Info("tick simulation started", slog.Int("symbols", len(h.symbols)), slog.Duration("interval", h.interval))
		for {
			select {
			case <-ctx.Done():
				h.logger.Info("tick simulation stopped")
				return
			case <-ticker.C:
				h.Step()
			}
		}
	}()
}

// Stop halts the tick loop and waits for it to exit. Safe to call when the
// hub is not running; a stopped hub can be started again.
func (h *Hub) Stop() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if !h.running {
		return
	}
	h.cancel()
	<-h.done
	h.running = false
}

// Running reports whether the tick loop is active.
func (h *Hub) Running() bool {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	return h.loopAlive()
}

// loopAlive reports whether the loop goroutine has not exited yet; it also
// exits when the ctx given to Start is cancelled. Requires runMu.
func (h *Hub) loopAlive() bool {
	if !h.running {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// SubscriberCount returns the number of active subscriptions across all symbols.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, s := range h.subs {
		n += len(s)
	}
	return n
}
