package strategy

import (
	"math"
	"testing"

	"ETFDesk/internal/model"
)

const eps = 1e-9

var unitBands = model.BandSnapshot{MovingAverage: 10, StdDev: 1, Upper: 12, Lower: 8, Window: 20, K: 2}

func TestEvaluate_UnitExample(t *testing.T) {
	ts, sig := NewEngine().Evaluate(12.1, unitBands)
	want := []struct {
		name string
		got  float64
		want float64
	}{
		{"sell1", ts.Sell[0].Price, 11.94},
		{"sell2", ts.Sell[1].Price, 12.0},
		{"sell3", ts.Sell[2].Price, 12.18},
		{"buy1", ts.Buy[0].Price, 8.04},
		{"buy2", ts.Buy[1].Price, 8.0},
	}
	for _, w := range want {
		if math.Abs(w.got-w.want) > eps {
			t.Errorf("%s: expected %.3f, got %.6f", w.name, w.want, w.got)
		}
	}
	if sig != model.SignalSell {
		t.Errorf("expected %s, got %s", model.SignalSell, sig)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		price float64
		want  model.Signal
	}{
		{13.0, model.SignalSell},
		{12.0 * 0.995, model.SignalSell},
		{11.93, model.SignalHold},
		{10.0, model.SignalHold},
		{8.05, model.SignalHold},
		{8.0 * 1.005, model.SignalBuy},
		{7.5, model.SignalBuy},
	}
	for _, tt := range tests {
		_, sig := e.Evaluate(tt.price, unitBands)
		if sig != tt.want {
			t.Errorf("price %.4f: expected %s, got %s", tt.price, tt.want, sig)
		}
	}
}

func TestClassify_TotalAndExclusive(t *testing.T) {
	e := NewEngine()
	for price := 0.0; price <= 20; price += 0.01 {
		ts, sig := e.Evaluate(price, unitBands)
		inSell := price >= ts.Sell[0].Price
		inBuy := !inSell && price <= ts.Buy[0].Price
		inHold := !inSell && !inBuy
		n := 0
		for _, b := range []bool{inSell, inBuy, inHold} {
			if b {
				n++
			}
		}
		if n != 1 {
			t.Fatalf("price %.2f: %d zones hold", price, n)
		}
		switch {
		case inSell && sig != model.SignalSell,
			inBuy && sig != model.SignalBuy,
			inHold && sig != model.SignalHold:
			t.Fatalf("price %.2f: got %s", price, sig)
		}
	}
}

func TestClassify_DegenerateBandsPreferSell(t *testing.T) {
	// Zero-width bands put buy tier 1 above sell tier 1.
	flat := model.BandSnapshot{MovingAverage: 5, Upper: 5, Lower: 5}
	_, sig := NewEngine().Evaluate(5, flat)
	if sig != model.SignalSell {
		t.Errorf("expected sell to win on overlap, got %s", sig)
	}
}

func TestTiers_Ordering(t *testing.T) {
	e := NewEngine()
	for _, width := range []float64{0.1, 0.5, 1, 2, 4} {
		bands := model.BandSnapshot{MovingAverage: 10, Upper: 10 + width, Lower: 10 - width}
		ts := e.Tiers(bands)
		if !(ts.Sell[0].Price <= ts.Sell[1].Price && ts.Sell[1].Price <= ts.Sell[2].Price) {
			t.Errorf("width %.1f: sell tiers not ascending: %+v", width, ts.Sell)
		}
		if ts.Buy[0].Price < ts.Buy[1].Price {
			t.Errorf("width %.1f: buy tier 1 below tier 2: %+v", width, ts.Buy)
		}
		if ts.Buy[1].Price > bands.MovingAverage || ts.Sell[1].Price < bands.MovingAverage {
			t.Errorf("width %.1f: moving average outside standard tiers", width)
		}
	}
}

func TestTiers_VariantMultiplier(t *testing.T) {
	e := NewEngine()
	e.Sell[2].Multiplier = 1.01
	ts := e.Tiers(unitBands)
	if math.Abs(ts.Sell[2].Price-12.12) > eps {
		t.Errorf("expected 12.12, got %.6f", ts.Sell[2].Price)
	}
}

func TestValidate(t *testing.T) {
	if err := NewEngine().Validate(); err != nil {
		t.Fatalf("default engine invalid: %v", err)
	}
	bad := NewEngine()
	bad.Sell[0].Multiplier = 1.1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unordered sell tiers")
	}
	bad = NewEngine()
	bad.Buy[1].Multiplier = 1.01
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unordered buy tiers")
	}
	bad = NewEngine()
	bad.Buy[0].Multiplier = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero multiplier")
	}
}
