package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"ETFDesk/internal/instrument"
	"ETFDesk/internal/model"
)

func TestCollect(t *testing.T) {
	mock := &MockFetcher{QuoteName: "沪深300ETF", Price: 4.0}
	c := NewCollector(instrument.NewResolver(nil), mock, mock, 30, model.AdjustNone)
	fixed := time.Date(2025, 3, 10, 15, 0, 0, 0, chinaTZ)
	c.Now = func() time.Time { return fixed }

	series, err := c.Collect(context.Background(), "510300")
	if err != nil {
		t.Fatal(err)
	}
	if series.Instrument.Market != model.MarketShanghai || series.Instrument.Name != "沪深300ETF" {
		t.Errorf("unexpected instrument %+v", series.Instrument)
	}
	if series.Quote.Price != 4.0 {
		t.Errorf("unexpected quote %+v", series.Quote)
	}
	if len(series.Bars) != 31 {
		t.Errorf("expected 31 bars for a 30-day inclusive range, got %d", len(series.Bars))
	}
}

func TestCollect_InvalidCodeSkipsFetch(t *testing.T) {
	mock := &MockFetcher{Price: 4.0}
	c := NewCollector(instrument.NewResolver(nil), mock, mock, 30, model.AdjustNone)
	_, err := c.Collect(context.Background(), "abc")
	if !errors.Is(err, model.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
	if mock.QuoteCalls != 0 || mock.BarsCalls != 0 {
		t.Error("fetchers called for an invalid code")
	}
}

func TestCollect_QuoteFailureStopsPipeline(t *testing.T) {
	mock := &MockFetcher{QuoteErr: model.ErrNetwork}
	c := NewCollector(instrument.NewResolver(nil), mock, mock, 30, model.AdjustNone)
	_, err := c.Collect(context.Background(), "510300")
	if !errors.Is(err, model.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if mock.BarsCalls != 0 {
		t.Error("history fetched after quote failure")
	}
}
