package dashboard

import (
	"time"

	"ETFDesk/internal/analysis"
	"ETFDesk/internal/calculator"
	"ETFDesk/internal/format"
	"ETFDesk/internal/model"
)

type tierView struct {
	Label string
	Price string
}

type resultView struct {
	Name     string
	Code     string
	Market   string
	Price    string
	MA       string
	StdDev   string
	Upper    string
	Lower    string
	Window   int
	K        string
	Sell     []tierView
	Buy      []tierView
	Signal   string
	Class    string
	Advice   string
	BarCount int
	LastBar  string
	Chart    *Chart
}

type page struct {
	Code    string
	History []string
	Error   string
	Result  *resultView
}

func signalClass(s model.Signal) string {
	switch s {
	case model.SignalSell:
		return "sell"
	case model.SignalBuy:
		return "buy"
	default:
		return "hold"
	}
}

func newResultView(a *model.Analysis, p calculator.BandParams) *resultView {
	r := &resultView{
		Name:     a.Instrument.Name,
		Code:     a.Instrument.Code,
		Market:   string(a.Instrument.Market),
		Price:    format.Price(a.Quote.Price),
		MA:       format.Price(a.Bands.MovingAverage),
		StdDev:   format.Price(a.Bands.StdDev),
		Upper:    format.Price(a.Bands.Upper),
		Lower:    format.Price(a.Bands.Lower),
		Window:   a.Bands.Window,
		K:        format.Price(a.Bands.K),
		Signal:   string(a.Signal),
		Class:    signalClass(a.Signal),
		Advice:   a.Signal.Advice(),
		BarCount: len(a.Bars),
	}
	for _, t := range a.Tiers.Sell {
		r.Sell = append(r.Sell, tierView{Label: t.Label, Price: format.Price(t.Price)})
	}
	for _, t := range a.Tiers.Buy {
		r.Buy = append(r.Buy, tierView{Label: t.Label, Price: format.Price(t.Price)})
	}
	if n := len(a.Bars); n > 0 {
		r.LastBar = a.Bars[n-1].Date.Format("2006-01-02")
	}
	// The chart is decoration; a failure leaves the numbers intact.
	if chart, err := BuildChart(a.Bars, p, 720, 280); err == nil {
		r.Chart = chart
	}
	return r
}

func newPage(v analysis.View, history []string, p calculator.BandParams) page {
	pg := page{Code: v.Code, History: history}
	if v.Failed() {
		pg.Error = v.Message
		return pg
	}
	pg.Result = newResultView(v.Analysis, p)
	return pg
}

type apiAnalysis struct {
	ID          string             `json:"id"`
	Code        string             `json:"code"`
	Market      model.Market       `json:"market"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Bands       model.BandSnapshot `json:"bands"`
	Tiers       model.TierSet      `json:"tiers"`
	Signal      model.Signal       `json:"signal"`
	Advice      string             `json:"advice"`
	BarCount    int                `json:"bar_count"`
	LastBarDate string             `json:"last_bar_date,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type apiError struct {
	Kind    analysis.Kind `json:"kind"`
	Message string        `json:"message"`
}

func newAPIAnalysis(a *model.Analysis) apiAnalysis {
	out := apiAnalysis{
		ID:        a.ID,
		Code:      a.Instrument.Code,
		Market:    a.Instrument.Market,
		Name:      a.Instrument.Name,
		Price:     a.Quote.Price,
		Bands:     a.Bands,
		Tiers:     a.Tiers,
		Signal:    a.Signal,
		Advice:    a.Signal.Advice(),
		BarCount:  len(a.Bars),
		CreatedAt: a.CreatedAt,
	}
	if n := len(a.Bars); n > 0 {
		out.LastBarDate = a.Bars[n-1].Date.Format("2006-01-02")
	}
	return out
}
