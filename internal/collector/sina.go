package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"ETFDesk/internal/model"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	DefaultSinaBaseURL = "http://hq.sinajs.cn"
	DefaultSinaReferer = "http://finance.sina.com.cn"
)

// SinaQuoteFetcher implements QuoteFetcher against the Sina real-time quote endpoint.
type SinaQuoteFetcher struct {
	BaseURL string
	Referer string
	Client  *http.Client
}

// NewSinaQuoteFetcher creates a fetcher with a fixed timeout and optional proxy support.
func NewSinaQuoteFetcher(baseURL, referer, proxyURL string, timeout time.Duration) *SinaQuoteFetcher {
	if baseURL == "" {
		baseURL = DefaultSinaBaseURL
	}
	if referer == "" {
		referer = DefaultSinaReferer
	}
	return &SinaQuoteFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Referer: referer,
		Client:  newHTTPClient(timeout, proxyURL),
	}
}

func (f *SinaQuoteFetcher) Name() string { return "sina" }

// FetchQuote sends one request; there is no retry.
func (f *SinaQuoteFetcher) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	endpoint := fmt.Sprintf("%s/list=%s", f.BaseURL, inst.QuoteKey())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build quote request: %w", model.ErrNetwork, err)
	}
	// The vendor rejects requests without its own referer.
	req.Header.Set("Referer", f.Referer)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch quote %s: %w", model.ErrNetwork, inst.QuoteKey(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch quote %s: status %d", model.ErrNetwork, inst.QuoteKey(), resp.StatusCode)
	}

	body, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("%w: read quote %s: %w", model.ErrNetwork, inst.QuoteKey(), err)
	}
	q, err := ParseSinaQuote(string(body))
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", inst.QuoteKey(), err)
	}
	q.FetchedAt = time.Now()
	return q, nil
}

// ParseSinaQuote extracts name and last price from a decoded line such as
//
//	var hq_str_sh510300="沪深300ETF,3.950,3.948,3.960,...";
//
// Field 0 is the name, field 2 the previous close and field 3 the last price.
// Before the first trade of the day the last price is zero and the previous
// close is used instead.
func ParseSinaQuote(text string) (*model.Quote, error) {
	start := strings.IndexByte(text, '"')
	end := strings.LastIndexByte(text, '"')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no quoted payload in %q", model.ErrUpstreamFormat, truncate(text, 64))
	}
	payload := text[start+1 : end]
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("%w: vendor returned an empty quote", model.ErrInvalidCode)
	}
	fields := strings.Split(payload, ",")
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 quote fields, got %d", model.ErrUpstreamFormat, len(fields))
	}

	price, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
	if err != nil {
		return nil, fmt.Errorf("%w: parse last price %q: %w", model.ErrUpstreamFormat, fields[3], err)
	}
	if !price.IsPositive() {
		prevClose, err := decimal.NewFromString(strings.TrimSpace(fields[2]))
		if err != nil || !prevClose.IsPositive() {
			return nil, fmt.Errorf("%w: no tradable price", model.ErrInvalidCode)
		}
		price = prevClose
	}

	return &model.Quote{
		Name:  strings.TrimSpace(fields[0]),
		Price: price.InexactFloat64(),
	}, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
