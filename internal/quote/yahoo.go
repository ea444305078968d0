package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"chartengine/internal/fixed"
	"chartengine/internal/model"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	// CORSProxy is the public proxy prefix used when browsers cannot reach
	// the chart API directly. The target URL is appended query-escaped.
	CORSProxy = "https://corsproxy.io/?url="
)

// chartRange maps a timeframe label to a Yahoo interval and lookback range.
type chartRange struct {
	Interval string
	Range    string
}

var chartRanges = map[string]chartRange{
	"1m":  {"1m", "5d"},
	"5m":  {"5m", "60d"},
	"15m": {"15m", "60d"},
	"1h":  {"1h", "730d"},
	"4h":  {"60m", "730d"}, // no native 4h interval
	"1D":  {"1d", "5y"},
	"1W":  {"1wk", "max"},
}

// RangeFor returns the Yahoo interval and range for a timeframe label.
// Unknown labels use the daily mapping.
func RangeFor(timeframe string) (interval, rng string) {
	r, ok := chartRanges[timeframe]
	if !ok {
		r = chartRanges["1D"]
	}
	return r.Interval, r.Range
}

// searchTypes are the quote types kept in search results.
var searchTypes = map[string]bool{
	"EQUITY":         true,
	"ETF":            true,
	"CRYPTOCURRENCY": true,
	"MUTUALFUND":     true,
	"CURRENCY":       true,
	"FUTURE":         true,
	"INDEX":          true,
}

// YahooConfig configures the Yahoo Finance client.
type YahooConfig struct {
	BaseURL string        // default DefaultBaseURL
	Proxy   string        // optional prefix, e.g. CORSProxy
	Timeout time.Duration // default 10s
}

// Yahoo fetches OHLCV history and symbol search from Yahoo Finance.
type Yahoo struct {
	baseURL string
	proxy   string
	client  *http.Client
}

// NewYahoo creates a Yahoo client.
func NewYahoo(cfg YahooConfig) *Yahoo {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Yahoo{
		baseURL: base,
		proxy:   cfg.Proxy,
		client:  &http.Client{Timeout: timeout},
	}
}

// wrap applies the proxy prefix, if any.
func (y *Yahoo) wrap(target string) string {
	if y.proxy == "" {
		return target
	}
	return y.proxy + url.QueryEscape(target)
}

func (y *Yahoo) chartURL(symbol, timeframe string) string {
	interval, rng := RangeFor(timeframe)
	q := url.Values{}
	q.Set("interval", interval)
	q.Set("range", rng)
	return y.wrap(y.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + q.Encode())
}

func (y *Yahoo) searchURL(query string) string {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", "20")
	q.Set("newsCount", "0")
	q.Set("listsCount", "0")
	return y.wrap(y.baseURL + "/v1/finance/search?" + q.Encode())
}

// chartResponse is the subset of the v8 chart payload we read. Quote arrays
// hold nulls for missing samples.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Bars fetches the history for symbol at the timeframe's interval.
func (y *Yahoo) Bars(ctx context.Context, symbol, timeframe string) ([]model.Bar, error) {
	var resp chartResponse
	if err := y.getJSON(ctx, y.chartURL(symbol, timeframe), &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %w", symbol, resp.Chart.Error.Description, ErrNoData)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}

	r := resp.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	q := r.Indicators.Quote[0]

	bars := normalize(r.Timestamp, q.Open, q.High, q.Low, q.Close, q.Volume)
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// normalize turns the column arrays into bars: rows with a null open or
// close are skipped, values are quantized, and the result is sorted by time
// with duplicate timestamps dropped (first occurrence wins).
func normalize(ts []int64, open, high, low, closes, volume []*float64) []model.Bar {
	bars := make([]model.Bar, 0, len(ts))
	for i, t := range ts {
		o, c := at(open, i), at(closes, i)
		if o == nil || c == nil {
			continue
		}
		b := model.Bar{
			Time:  t,
			Open:  fixed.Price(*o),
			Close: fixed.Price(*c),
		}
		b.High = math.Max(b.Open, b.Close)
		if h := at(high, i); h != nil {
			b.High = math.Max(b.High, fixed.Price(*h))
		}
		b.Low = math.Min(b.Open, b.Close)
		if l := at(low, i); l != nil {
			b.Low = math.Min(b.Low, fixed.Price(*l))
		}
		if v := at(volume, i); v != nil {
			b.Volume = fixed.Volume(*v)
		}
		bars = append(bars, b)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })

	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && b.Time == out[len(out)-1].Time {
			continue
		}
		out = append(out, b)
	}
	return out
}

func at(col []*float64, i int) *float64 {
	if i >= len(col) {
		return nil
	}
	return col[i]
}

// searchResponse accepts both the plain payload and the wrapped shape some
// proxies return.
type searchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	QuoteType string `json:"quoteType"`
	ExchDisp  string `json:"exchDisp"`
	Exchange  string `json:"exchange"`
}

type searchResponse struct {
	Quotes []searchQuote `json:"quotes"`
	Result struct {
		Quotes []searchQuote `json:"quotes"`
	} `json:"result"`
}

// Search returns symbols matching query. An empty query returns no results
// without a request.
func (y *Yahoo) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	var resp searchResponse
	if err := y.getJSON(ctx, y.searchURL(query), &resp); err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", query, err)
	}

	quotes := resp.Quotes
	if len(quotes) == 0 {
		quotes = resp.Result.Quotes
	}

	results := make([]SearchResult, 0, len(quotes))
	for _, q := range quotes {
		if q.Symbol == "" || !searchTypes[q.QuoteType] {
			continue
		}
		results = append(results, SearchResult{
			Symbol:   q.Symbol,
			Name:     firstNonEmpty(q.ShortName, q.LongName, q.Symbol),
			Type:     q.QuoteType,
			Exchange: firstNonEmpty(q.ExchDisp, q.Exchange),
		})
	}
	return results, nil
}

func (y *Yahoo) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
