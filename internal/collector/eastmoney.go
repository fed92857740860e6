package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ETFDesk/internal/model"
)

const DefaultEastMoneyBaseURL = "https://push2his.eastmoney.com"

// klineColumns is the exact row layout requested through fields2=f51..f61.
var klineColumns = []string{
	"date", "open", "close", "high", "low", "volume",
	"amount", "amplitude_pct", "change_pct", "change_amt", "turnover_pct",
}

// EastMoneyHistoryFetcher implements HistoryFetcher using the EastMoney kline API.
type EastMoneyHistoryFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewEastMoneyHistoryFetcher creates a fetcher with a fixed timeout and optional proxy support.
func NewEastMoneyHistoryFetcher(baseURL, proxyURL string, timeout time.Duration) *EastMoneyHistoryFetcher {
	if baseURL == "" {
		baseURL = DefaultEastMoneyBaseURL
	}
	return &EastMoneyHistoryFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  newHTTPClient(timeout, proxyURL),
	}
}

func (f *EastMoneyHistoryFetcher) Name() string { return "eastmoney" }

// emKlines is the expected JSON shape of the kline endpoint.
type emKlines struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

func adjustFlag(a model.AdjustMode) (string, error) {
	switch a {
	case model.AdjustNone:
		return "0", nil
	case model.AdjustForward:
		return "1", nil
	case model.AdjustBack:
		return "2", nil
	default:
		return "", fmt.Errorf("%w: adjust mode %q has no vendor flag", model.ErrUpstreamFormat, a)
	}
}

func (f *EastMoneyHistoryFetcher) FetchDailyBars(ctx context.Context, inst model.Instrument, q model.HistoryQuery) ([]model.DailyBar, error) {
	fqt, err := adjustFlag(q.Adjust)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("secid", inst.SecID())
	params.Set("fields1", "f1,f2,f3,f4,f5,f6")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58,f59,f60,f61")
	params.Set("klt", "101")
	params.Set("fqt", fqt)
	params.Set("beg", q.Start.Format("20060102"))
	params.Set("end", q.End.Format("20060102"))
	endpoint := f.BaseURL + "/api/qt/stock/kline/get?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build history request: %w", model.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch history %s: %w", model.ErrNetwork, inst.Code, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read history %s: %w", model.ErrNetwork, inst.Code, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch history %s: status %d, body: %s",
			model.ErrNetwork, inst.Code, resp.StatusCode, truncate(string(body), 128))
	}

	var payload emKlines
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode history %s: %w", model.ErrUpstreamFormat, inst.Code, err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: no history for %s", model.ErrInvalidCode, inst.Code)
	}

	bars := make([]model.DailyBar, 0, len(payload.Data.Klines))
	for i, row := range payload.Data.Klines {
		bar, err := ParseKline(row)
		if err != nil {
			return nil, fmt.Errorf("history %s row %d: %w", inst.Code, i, err)
		}
		bars = append(bars, bar)
	}

	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ParseKline validates and decodes one comma-joined kline row.
// Rows must carry exactly the columns listed in klineColumns, in that order.
func ParseKline(row string) (model.DailyBar, error) {
	fields := strings.Split(row, ",")
	if len(fields) != len(klineColumns) {
		return model.DailyBar{}, fmt.Errorf("%w: expected %d columns, got %d",
			model.ErrUpstreamFormat, len(klineColumns), len(fields))
	}
	date, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(fields[0]), chinaTZ)
	if err != nil {
		return model.DailyBar{}, fmt.Errorf("%w: column date: %w", model.ErrUpstreamFormat, err)
	}
	nums := make([]float64, len(fields)-1)
	for i, s := range fields[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return model.DailyBar{}, fmt.Errorf("%w: column %s: %w", model.ErrUpstreamFormat, klineColumns[i+1], err)
		}
		nums[i] = v
	}
	return model.DailyBar{
		Date:         date,
		Open:         nums[0],
		Close:        nums[1],
		High:         nums[2],
		Low:          nums[3],
		Volume:       nums[4],
		Amount:       nums[5],
		AmplitudePct: nums[6],
		ChangePct:    nums[7],
		ChangeAmt:    nums[8],
		TurnoverPct:  nums[9],
	}, nil
}
