package collector

import (
	"context"
	"fmt"
	"time"

	"ETFDesk/internal/instrument"
	"ETFDesk/internal/metrics"
	"ETFDesk/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	QuoteName string
	Price     float64
	DailyData []model.DailyBar
	QuoteErr  error
	BarsErr   error

	QuoteCalls int
	BarsCalls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchQuote(_ context.Context, inst model.Instrument) (*model.Quote, error) {
	m.QuoteCalls++
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	name := m.QuoteName
	if name == "" {
		name = "MOCK" + inst.Code
	}
	return &model.Quote{Name: name, Price: m.Price, FetchedAt: time.Now()}, nil
}

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ model.Instrument, q model.HistoryQuery) ([]model.DailyBar, error) {
	m.BarsCalls++
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	days := int(q.End.Sub(q.Start).Hours()/24) + 1
	return GenerateMockBars(m.Price, days), nil
}

// GenerateMockBars builds count ascending daily bars drifting around basePrice.
func GenerateMockBars(basePrice float64, count int) []model.DailyBar {
	if count < 0 {
		count = 0
	}
	bars := make([]model.DailyBar, count)
	start := time.Now().AddDate(0, 0, -count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.DailyBar{
			Date:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
			Amount: 1000000 * p,
		}
	}
	return bars
}

// Collector resolves a code and fetches its quote and daily history, in that order.
type Collector struct {
	Resolver     *instrument.Resolver
	Quotes       QuoteFetcher
	History      HistoryFetcher
	LookbackDays int
	Adjust       model.AdjustMode
	Now          func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(resolver *instrument.Resolver, quotes QuoteFetcher, history HistoryFetcher, lookbackDays int, adjust model.AdjustMode) *Collector {
	return &Collector{
		Resolver:     resolver,
		Quotes:       quotes,
		History:      history,
		LookbackDays: lookbackDays,
		Adjust:       adjust,
		Now:          time.Now,
	}
}

// Collect fetches the quote and the bars from today-LookbackDays through today.
func (c *Collector) Collect(ctx context.Context, code string) (*model.PriceSeries, error) {
	inst, err := c.Resolver.Resolve(code)
	if err != nil {
		return nil, err
	}

	begin := time.Now()
	quote, err := c.Quotes.FetchQuote(ctx, inst)
	metrics.FetchDuration.WithLabelValues(c.Quotes.Name(), metrics.Result(err)).Observe(time.Since(begin).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	inst.Name = quote.Name

	now := c.Now().In(chinaTZ)
	q := model.HistoryQuery{
		Start:  now.AddDate(0, 0, -c.LookbackDays),
		End:    now,
		Adjust: c.Adjust,
	}
	begin = time.Now()
	bars, err := c.History.FetchDailyBars(ctx, inst, q)
	metrics.FetchDuration.WithLabelValues(c.History.Name(), metrics.Result(err)).Observe(time.Since(begin).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}

	return &model.PriceSeries{
		Instrument: inst,
		Quote:      *quote,
		Bars:       bars,
		FetchedAt:  now,
	}, nil
}
