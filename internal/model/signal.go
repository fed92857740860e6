package model

import "time"

// Signal is the qualitative position hint derived from price and bands.
type Signal string

const (
	SignalSell Signal = "SELL_ZONE"
	SignalBuy  Signal = "BUY_ZONE"
	SignalHold Signal = "HOLD_ZONE"
)

// Advice returns the user-facing hint for the signal.
func (s Signal) Advice() string {
	switch s {
	case SignalSell:
		return "Price is in the sell zone: take profit in batches."
	case SignalBuy:
		return "Price is in the buy zone: margin of safety is favorable."
	default:
		return "Price is mid-range: hold and wait."
	}
}

// BandSnapshot is the most recent Bollinger envelope over the closes.
type BandSnapshot struct {
	MovingAverage float64 `json:"moving_average"`
	StdDev        float64 `json:"std_dev"`
	Upper         float64 `json:"upper"`
	Lower         float64 `json:"lower"`
	Window        int     `json:"window"`
	K             float64 `json:"k"`
}

// Tier is a discrete price threshold for a partial position action.
type Tier struct {
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
	Price      float64 `json:"price"`
}

// TierSet holds the sell tiers (fractions of the upper band, ascending) and
// the buy tiers (fractions of the lower band, descending).
type TierSet struct {
	Sell [3]Tier `json:"sell"`
	Buy  [2]Tier `json:"buy"`
}

// Analysis is the full result of one user-triggered query.
type Analysis struct {
	ID         string
	Instrument Instrument
	Quote      Quote
	Bars       []DailyBar
	Bands      BandSnapshot
	Tiers      TierSet
	Signal     Signal
	CreatedAt  time.Time
}
