package indicator

import (
	"math"
	"testing"

	"chartengine/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func bar(t int64, c float64) model.Bar {
	return model.Bar{Time: t, Open: c, High: c + 0.5, Low: c - 0.5, Close: c}
}

func barsFrom(closes ...float64) []model.Bar {
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		out[i] = bar(int64(i+1)*60, c)
	}
	return out
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA after bar 3: (100+102+104)/3 = 102
	// SMA after bar 4: (102+104+103)/3 = 103
	// SMA after bar 5: (104+103+105)/3 = 104
	sma := NewSMA(3)
	expected := []float64{0, 0, 102, 103, 104}
	ready := []bool{false, false, true, true, true}

	for i, b := range barsFrom(100, 102, 104, 103, 105) {
		sma.Update(b)
		if sma.Ready() != ready[i] {
			t.Errorf("bar %d: Ready()=%v, want %v", i, sma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMA(3)", sma.Value(), expected[i], 1e-9)
		}
	}
}

func TestSMA_Peek_DoesNotMutate(t *testing.T) {
	sma := NewSMA(3)
	for _, b := range barsFrom(100, 102, 104) {
		sma.Update(b)
	}
	before := sma.Value()

	// (102+104+106)/3 = 104
	assertClose(t, "peek", sma.Peek(106), 104, 1e-9)
	if sma.Value() != before {
		t.Errorf("Peek mutated state: %v -> %v", before, sma.Value())
	}
}

func TestSMA_RollsWindow(t *testing.T) {
	sma := NewSMA(3)
	for _, b := range barsFrom(1, 2, 3, 10, 20) {
		sma.Update(b)
	}
	// window is 3, 10, 20
	assertClose(t, "value", sma.Value(), 11, 1e-9)
	// peek drops the 3: (10+20+30)/3
	assertClose(t, "peek", sma.Peek(30), 20, 1e-9)
}

func TestSMA_PeekBeforeReady(t *testing.T) {
	sma := NewSMA(4)
	for _, b := range barsFrom(2, 4) {
		sma.Update(b)
	}
	if sma.Ready() {
		t.Fatal("should not be ready after 2 of 4 bars")
	}
	assertClose(t, "partial peek", sma.Peek(6), 4, 1e-9)
}

// ────────────────────────────────────────────────────────────
// EMA
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// multiplier = 2/(3+1) = 0.5
	// seed = (100+102+104)/3 = 102
	// bar 4: 103*0.5 + 102*0.5 = 102.5
	// bar 5: 105*0.5 + 102.5*0.5 = 103.75
	ema := NewEMA(3)
	expected := []float64{0, 0, 102, 102.5, 103.75}

	for i, b := range barsFrom(100, 102, 104, 103, 105) {
		ema.Update(b)
		if i >= 2 {
			assertClose(t, "EMA(3)", ema.Value(), expected[i], 1e-9)
		}
	}
}

func TestEMA_Peek_CorrectValue(t *testing.T) {
	ema := NewEMA(3)
	for _, b := range barsFrom(100, 102, 104) {
		ema.Update(b)
	}
	// 106*0.5 + 102*0.5 = 104
	assertClose(t, "peek", ema.Peek(106), 104, 1e-9)
	assertClose(t, "value unchanged", ema.Value(), 102, 1e-9)
}

// ────────────────────────────────────────────────────────────
// RSI (Wilder)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Prices: 44, 44.34, 44.09, 43.61, 44.33, 44.83
	// Deltas: +0.34, -0.25, -0.48, +0.72, +0.50
	// avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	// RS = 2.136986, RSI = 100 - 100/3.136986 = 68.1223
	rsi := NewRSI(5)
	for _, b := range barsFrom(44, 44.34, 44.09, 43.61, 44.33, 44.83) {
		rsi.Update(b)
	}
	if !rsi.Ready() {
		t.Fatal("expected Ready after period+1 bars")
	}
	assertClose(t, "RSI(5)", rsi.Value(), 68.1223, 0.001)

	// Next: 45.10 → gain 0.27
	// avgGain = (0.312*4 + 0.27)/5 = 0.3036, avgLoss = 0.146*4/5 = 0.1168
	// RSI = 100 - 100/(1 + 2.599315) = 72.2169
	rsi.Update(bar(7*60, 45.10))
	assertClose(t, "RSI(5) smoothed", rsi.Value(), 72.2169, 0.001)
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	rsi := NewRSI(3)
	for _, b := range barsFrom(1, 2, 3, 4, 5) {
		rsi.Update(b)
	}
	if rsi.Value() != 100 {
		t.Errorf("expected 100 with zero losses, got %v", rsi.Value())
	}
	if rsi.Peek(6) != 100 {
		t.Errorf("expected peek 100, got %v", rsi.Peek(6))
	}
}

func TestRSI_Peek_BeforeReady(t *testing.T) {
	rsi := NewRSI(14)
	rsi.Update(bar(60, 10))
	if rsi.Peek(11) != 0 {
		t.Errorf("peek before ready should return current (0), got %v", rsi.Peek(11))
	}
}

// ────────────────────────────────────────────────────────────
// Factory / specs
// ────────────────────────────────────────────────────────────

func TestNew_Factory(t *testing.T) {
	for _, typ := range []string{"SMA", "EMA", "RSI"} {
		ind, err := New(Spec{Type: typ, Period: 5})
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if ind.Name() != typ {
			t.Errorf("expected name %s, got %s", typ, ind.Name())
		}
	}
	if _, err := New(Spec{Type: "VWAP", Period: 5}); err == nil {
		t.Error("expected error for unknown type")
	}
	if _, err := New(Spec{Type: "SMA", Period: 0}); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestParseSpecs(t *testing.T) {
	specs := ParseSpecs("SMA:20, ema:9,RSI:x,BAD,MACD:3,RSI:14,")
	want := []Spec{{"SMA", 20}, {"EMA", 9}, {"RSI", 14}}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %v", len(want), specs)
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec %d: got %+v, want %+v", i, specs[i], want[i])
		}
	}
	if specs[0].Label() != "SMA_20" {
		t.Errorf("label: %s", specs[0].Label())
	}
}
