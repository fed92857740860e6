package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"ETFDesk/internal/model"
)

// QuoteFetcher retrieves a real-time quote.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error)
	Name() string
}

// HistoryFetcher retrieves daily bars in chronological order.
type HistoryFetcher interface {
	FetchDailyBars(ctx context.Context, inst model.Instrument, q model.HistoryQuery) ([]model.DailyBar, error)
	Name() string
}

// newHTTPClient builds a client with a fixed timeout and optional proxy.
func newHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// chinaTZ is the exchange timezone used for bar dates.
var chinaTZ = time.FixedZone("CST", 8*3600)
