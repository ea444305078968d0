package tickhub

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
	"chartengine/internal/synth"
)

func fixedSynth() *synth.Synthesizer {
	return &synth.Synthesizer{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }}
}

func constRand(v float64) func() float64 {
	return func() float64 { return v }
}

func TestNew_SeedsFromDailyTail(t *testing.T) {
	s := fixedSynth()
	h := New(WithSynthesizer(s), WithRand(constRand(0.5)))

	bars := s.Generate("AAPL", "1D")
	want := bars[len(bars)-1].Close
	if got := h.LastPrice("AAPL"); got != want {
		t.Errorf("AAPL seeded at %v, want tail close %v", got, want)
	}
	if got := h.LastPrice("XXX-NONE"); got != 0 {
		t.Errorf("unknown symbol price %v, want 0", got)
	}
}

func TestLastPrice_FallsBackToBase(t *testing.T) {
	profiles := map[string]model.SymbolProfile{
		"AAPL": {Symbol: "AAPL", Base: 188, Volatility: 0.012},
	}
	h := New(WithProfiles(profiles), WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)))
	h.mu.Lock()
	delete(h.prices, "AAPL")
	h.mu.Unlock()
	if got := h.LastPrice("AAPL"); got != 188 {
		t.Errorf("expected base 188, got %v", got)
	}
}

func TestStep_InvokesSubscriberOnce(t *testing.T) {
	draws := []float64{0.9, 0.1, 0.7, 0.3, 0.5, 0.2, 0.8, 0.4}
	i := 0
	rnd := func() float64 { v := draws[i%len(draws)]; i++; return v }

	h := New(WithSynthesizer(fixedSynth()), WithRand(rnd))
	prior := h.LastPrice("AAPL")
	vol := 0.012

	var calls int
	var got float64
	h.Subscribe("AAPL", func(p float64) {
		calls++
		got = p
	})

	h.Step()

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if dist := math.Abs(got-prior) / prior; dist > vol/20*1.5 {
		t.Errorf("tick moved %.6f, limit %.6f", dist, vol/20*1.5)
	}
	if h.LastPrice("AAPL") != got {
		t.Errorf("LastPrice %v does not match delivered %v", h.LastPrice("AAPL"), got)
	}
}

func TestStep_PriceFormula(t *testing.T) {
	profiles := map[string]model.SymbolProfile{
		"SPY": {Symbol: "SPY", Base: 445, Volatility: 0.008},
	}
	h := New(WithProfiles(profiles), WithSynthesizer(fixedSynth()), WithRand(constRand(0.995)))
	prior := h.LastPrice("SPY")
	h.Step()
	// change = (0.995 - 0.495) * 0.008/20 = 0.0002
	want := fixed.Price(prior * (1 + (0.995-0.495)*0.008/20))
	if got := h.LastPrice("SPY"); got != want {
		t.Errorf("price %v, want %v", got, want)
	}
}

func TestSubscribe_RegistrationOrder(t *testing.T) {
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)))
	var order []int
	for n := 0; n < 5; n++ {
		n := n
		h.Subscribe("TSLA", func(float64) { order = append(order, n) })
	}
	h.Step()
	for i, n := range order {
		if n != i {
			t.Fatalf("callbacks out of order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 callbacks, got %d", len(order))
	}
}

func TestSubscription_Cancel(t *testing.T) {
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)))
	var a, b int
	subA := h.Subscribe("META", func(float64) { a++ })
	h.Subscribe("META", func(float64) { b++ })

	h.Step()
	subA.Cancel()
	subA.Cancel()
	h.Step()

	if a != 1 || b != 2 {
		t.Errorf("after cancel: a=%d b=%d, want 1 and 2", a, b)
	}
	if h.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", h.SubscriberCount())
	}
}

func TestSubscribeChan_DropsWhenFull(t *testing.T) {
	var drops atomic.Int64
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)),
		WithOnDrop(func(string) { drops.Add(1) }))
	ch, sub := h.SubscribeChan("NVDA", 1)

	h.Step()
	h.Step()

	tick := <-ch
	if tick.Symbol != "NVDA" || tick.Price <= 0 {
		t.Errorf("unexpected tick %+v", tick)
	}
	if drops.Load() != 1 {
		t.Errorf("expected 1 drop, got %d", drops.Load())
	}

	sub.Cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Cancel")
	}
	h.Step() // must not panic on the closed subscription
}

func TestOnTick_SeesEverySymbol(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)),
		WithOnTick(func(tk model.Tick) {
			mu.Lock()
			seen[tk.Symbol]++
			mu.Unlock()
		}))
	h.Step()
	if len(seen) != len(model.Symbols()) {
		t.Errorf("hook saw %d symbols, want %d", len(seen), len(model.Symbols()))
	}
}

func TestStart_Idempotent(t *testing.T) {
	var ticks atomic.Int64
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)), WithInterval(20*time.Millisecond))
	h.Subscribe("AAPL", func(float64) { ticks.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)
	h.Start(ctx)
	if !h.Running() {
		t.Fatal("expected running")
	}

	time.Sleep(110 * time.Millisecond)
	h.Stop()
	n := ticks.Load()

	// One loop at 20ms fires about 5 times in 110ms; two loops would be ~10.
	if n < 1 || n > 7 {
		t.Errorf("unexpected tick count %d for a single loop", n)
	}

	time.Sleep(60 * time.Millisecond)
	if ticks.Load() != n {
		t.Error("ticks continued after Stop")
	}
	h.Stop()
	if h.Running() {
		t.Error("expected stopped")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	h := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.5)), WithInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx)
	cancel()
	h.Stop() // waits for the loop to exit
}

func TestHubs_Independent(t *testing.T) {
	a := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.9)))
	b := New(WithSynthesizer(fixedSynth()), WithRand(constRand(0.9)))
	before := b.LastPrice("MSFT")
	a.Step()
	if b.LastPrice("MSFT") != before {
		t.Error("stepping one hub changed another")
	}
}

func TestConcurrentReaders(t *testing.T) {
	h := New(WithSynthesizer(fixedSynth()), WithInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if h.LastPrice("BTC-USD") <= 0 {
					t.Error("non-positive price observed")
					return
				}
			}
		}()
	}
	wg.Wait()
	h.Stop()
}
