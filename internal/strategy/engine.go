package strategy

import (
	"errors"

	"ETFDesk/internal/model"
)

// TierRule scales a band into a tier price.
type TierRule struct {
	Label      string
	Multiplier float64
}

// Engine maps price and bands to tiered suggestions.
// Sell rules apply to the upper band, buy rules to the lower band.
type Engine struct {
	Sell [3]TierRule
	Buy  [2]TierRule
}

// DefaultSellRules scale the upper band; the third tier is 1.01 in the lighter variant.
var DefaultSellRules = [3]TierRule{
	{Label: "Tier 1 (sell 30%)", Multiplier: 0.995},
	{Label: "Tier 2 (sell 50%)", Multiplier: 1.0},
	{Label: "Tier 3 (clear position)", Multiplier: 1.015},
}

// DefaultBuyRules scale the lower band.
var DefaultBuyRules = [2]TierRule{
	{Label: "Tier 1 (light)", Multiplier: 1.005},
	{Label: "Tier 2 (heavy)", Multiplier: 1.0},
}

// NewEngine creates an Engine with the default multipliers.
func NewEngine() *Engine {
	return &Engine{Sell: DefaultSellRules, Buy: DefaultBuyRules}
}

// Validate checks that the multipliers keep the tiers ordered:
// sell tiers ascending, buy tiers descending.
func (e *Engine) Validate() error {
	for i, r := range e.Sell {
		if r.Multiplier <= 0 {
			return errors.New("sell tier multipliers must be positive")
		}
		if i > 0 && r.Multiplier < e.Sell[i-1].Multiplier {
			return errors.New("sell tier multipliers must be ascending")
		}
	}
	for i, r := range e.Buy {
		if r.Multiplier <= 0 {
			return errors.New("buy tier multipliers must be positive")
		}
		if i > 0 && r.Multiplier > e.Buy[i-1].Multiplier {
			return errors.New("buy tier multipliers must be descending")
		}
	}
	return nil
}

// Tiers computes the tier prices for the given bands.
func (e *Engine) Tiers(bands model.BandSnapshot) model.TierSet {
	var ts model.TierSet
	for i, r := range e.Sell {
		ts.Sell[i] = model.Tier{Label: r.Label, Multiplier: r.Multiplier, Price: bands.Upper * r.Multiplier}
	}
	for i, r := range e.Buy {
		ts.Buy[i] = model.Tier{Label: r.Label, Multiplier: r.Multiplier, Price: bands.Lower * r.Multiplier}
	}
	return ts
}

// Classify returns the signal for price against the first sell and buy tiers.
// The sell check wins when both hold.
func Classify(price float64, ts model.TierSet) model.Signal {
	switch {
	case price >= ts.Sell[0].Price:
		return model.SignalSell
	case price <= ts.Buy[0].Price:
		return model.SignalBuy
	default:
		return model.SignalHold
	}
}

// Evaluate computes the tier set and signal for price against bands.
func (e *Engine) Evaluate(price float64, bands model.BandSnapshot) (model.TierSet, model.Signal) {
	ts := e.Tiers(bands)
	return ts, Classify(price, ts)
}
