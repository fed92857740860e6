package model

import "time"

// Market is the exchange namespace an instrument trades in.
type Market string

const (
	MarketShanghai Market = "sh"
	MarketShenzhen Market = "sz"
)

// Valid reports whether m is a known market.
func (m Market) Valid() bool {
	return m == MarketShanghai || m == MarketShenzhen
}

// Instrument identifies a fund by its 6-digit code and the market it is quoted on.
type Instrument struct {
	Code   string
	Market Market
	Name   string
}

// QuoteKey returns the vendor list key, e.g. "sh510300".
func (i Instrument) QuoteKey() string {
	return string(i.Market) + i.Code
}

// SecID returns the history vendor security id, e.g. "1.510300".
func (i Instrument) SecID() string {
	if i.Market == MarketShanghai {
		return "1." + i.Code
	}
	return "0." + i.Code
}

// Quote is a real-time price snapshot. It is overwritten on every fetch.
type Quote struct {
	Name      string
	Price     float64
	FetchedAt time.Time
}

// DailyBar is one trading day of OHLCV data.
type DailyBar struct {
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	Close        float64   `json:"close"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Volume       float64   `json:"volume"`
	Amount       float64   `json:"amount"`
	AmplitudePct float64   `json:"amplitude_pct"`
	ChangePct    float64   `json:"change_pct"`
	ChangeAmt    float64   `json:"change_amt"`
	TurnoverPct  float64   `json:"turnover_pct"`
}

// AdjustMode selects price adjustment for historical bars.
type AdjustMode string

const (
	AdjustNone    AdjustMode = ""
	AdjustForward AdjustMode = "qfq"
	AdjustBack    AdjustMode = "hfq"
)

// HistoryQuery is an inclusive daily date range request.
type HistoryQuery struct {
	Start  time.Time
	End    time.Time
	Adjust AdjustMode
}

// PriceSeries is the raw market data collected for one query.
type PriceSeries struct {
	Instrument Instrument
	Quote      Quote
	Bars       []DailyBar
	FetchedAt  time.Time
}
