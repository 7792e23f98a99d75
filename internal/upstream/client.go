// Package upstream talks to the Yahoo-Finance-shaped market-data vendor:
// URL and query construction, retried HTTP exchange, and decoding of the
// chart/search payloads into the proxy's domain models.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/onnwee/ticker-proxy/internal/circuitbreaker"
	"github.com/onnwee/ticker-proxy/internal/config"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/httpx"
)

// periodSeconds maps chart period names to trailing range lengths.
// "max" is resolved against the current time at call site.
var periodSeconds = map[string]int64{
	"1d":  24 * 60 * 60,
	"5d":  5 * 24 * 60 * 60,
	"1mo": 30 * 24 * 60 * 60,
	"3mo": 90 * 24 * 60 * 60,
	"6mo": 180 * 24 * 60 * 60,
	"1y":  365 * 24 * 60 * 60,
	"2y":  2 * 365 * 24 * 60 * 60,
	"5y":  5 * 365 * 24 * 60 * 60,
	"10y": 10 * 365 * 24 * 60 * 60,
}

// Client is the retrying, circuit-broken vendor client. A single instance
// is shared by all handlers; the http.Client carries the per-call timeout.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	breaker   *circuitbreaker.CircuitBreaker

	// defaultPolicy covers search/news/live; chartPolicy is the tighter
	// schedule the quote and history paths use.
	defaultPolicy httpx.RetryPolicy
	chartPolicy   httpx.RetryPolicy
}

// NewClient builds a Client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:   cfg.UpstreamBaseURL,
		userAgent: cfg.UserAgent,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:      "upstream",
			IsFailure: isHealthFailure,
		}),
		defaultPolicy: httpx.RetryPolicy{MaxAttempts: cfg.FetchMaxAttempts, InitialDelay: cfg.FetchRetryBase},
		chartPolicy:   httpx.RetryPolicy{MaxAttempts: cfg.ChartMaxAttempts, InitialDelay: cfg.ChartRetryBase},
	}
}

// Search returns symbol suggestions for a free-text query.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	params := url.Values{
		"q":                          {query},
		"quotesCount":                {"20"},
		"newsCount":                  {"0"},
		"enableFuzzyQuery":           {"true"},
		"quotesQueryId":              {"tss_match_phrase_query"},
		"multiQuoteQueryId":          {"multi_quote_single_token_query"},
		"enableCb":                   {"true"},
		"enableNavLinks":             {"true"},
		"enableEnhancedTrivialQuery": {"true"},
	}

	var wire searchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", params, c.defaultPolicy, &wire); err != nil {
		return nil, err
	}

	out := &SearchResult{Suggestions: make([]Suggestion, 0, len(wire.Quotes))}
	for _, q := range wire.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		if name == "" {
			continue
		}
		out.Suggestions = append(out.Suggestions, Suggestion{
			Symbol:   q.Symbol,
			Name:     name,
			Exchange: q.Exchange,
		})
	}
	return out, nil
}

// Quote returns the current market snapshot for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	result, err := c.chart(ctx, symbol, nil, c.chartPolicy)
	if err != nil {
		return nil, err
	}
	meta := result.Meta
	return &Quote{
		Symbol:        symbol,
		Name:          meta.InstrumentType,
		Price:         meta.RegularMarketPrice,
		Change:        meta.RegularMarketChange,
		ChangePercent: meta.RegularMarketChangePercent,
		Volume:        meta.RegularMarketVolume,
		High:          meta.RegularMarketDayHigh,
		Low:           meta.RegularMarketDayLow,
	}, nil
}

// History returns daily (or interval-sized) candles over the named period.
func (c *Client) History(ctx context.Context, symbol, period, interval string) (*History, error) {
	end := time.Now().Unix()
	span, ok := periodSeconds[period]
	if !ok {
		if period == "max" {
			span = end
		} else {
			span = periodSeconds["1mo"]
		}
	}
	params := url.Values{
		"period1":  {fmt.Sprintf("%d", end-span)},
		"period2":  {fmt.Sprintf("%d", end)},
		"interval": {interval},
		"events":   {"history"},
	}

	result, err := c.chart(ctx, symbol, params, c.chartPolicy)
	if err != nil {
		return nil, err
	}
	if len(result.Indicators.Quote) == 0 {
		return nil, governor.NotFound()
	}

	series := result.Indicators.Quote[0]
	out := &History{Candles: make([]Candle, 0, len(result.Timestamp))}
	for i, ts := range result.Timestamp {
		bar, ok := barAt(series, i)
		if !ok {
			// The vendor nulls out partially-traded bars; skip them.
			continue
		}
		bar.Date = time.Unix(ts, 0).Format("2006-01-02")
		out.Candles = append(out.Candles, bar)
	}
	return out, nil
}

// Live returns only the current price, stamped with the serve time.
func (c *Client) Live(ctx context.Context, symbol string) (*LivePrice, error) {
	result, err := c.chart(ctx, symbol, nil, c.defaultPolicy)
	if err != nil {
		return nil, err
	}
	return &LivePrice{
		Symbol:    symbol,
		Price:     result.Meta.RegularMarketPrice,
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}

// News returns recent articles mentioning the symbol.
func (c *Client) News(ctx context.Context, symbol string) (*NewsList, error) {
	params := url.Values{
		"q":                {symbol},
		"quotesCount":      {"0"},
		"newsCount":        {"10"},
		"enableFuzzyQuery": {"false"},
	}

	var wire searchResponse
	if err := c.getJSON(ctx, "/v1/finance/search", params, c.defaultPolicy, &wire); err != nil {
		return nil, err
	}

	out := &NewsList{Items: make([]NewsItem, 0, len(wire.News))}
	for _, n := range wire.News {
		item := NewsItem{
			Title:       n.Title,
			Publisher:   n.Publisher,
			Link:        n.Link,
			PublishedAt: n.ProviderPublishTime,
			Type:        n.Type,
		}
		if len(n.Thumbnail.Resolutions) > 0 {
			item.Thumbnail = n.Thumbnail.Resolutions[0].URL
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// chart fetches /v8/finance/chart/{symbol} and unwraps the single result.
// An empty result set is the vendor's way of saying the symbol does not
// exist, which must surface as a definitive not-found.
func (c *Client) chart(ctx context.Context, symbol string, params url.Values, policy httpx.RetryPolicy) (*chartResult, error) {
	var wire chartResponse
	if err := c.getJSON(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, policy, &wire); err != nil {
		return nil, err
	}
	if len(wire.Chart.Result) == 0 {
		return nil, governor.NotFound()
	}
	return &wire.Chart.Result[0], nil
}

// getJSON runs one governed upstream exchange through the circuit breaker.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, policy httpx.RetryPolicy, out any) error {
	rawURL := c.baseURL + path
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}

	err := c.breaker.Call(func() error {
		resp, err := httpx.DoWithRetry(ctx, c.http, policy, func() (*http.Request, error) {
			req, err := http.NewRequest(http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("User-Agent", c.userAgent)
			return req, nil
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return ClassifyStatus(resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// A truncated or garbled body is indistinguishable from a
			// flaky connection; let the fallback policy rescue it.
			return governor.Transport(fmt.Errorf("decode upstream payload: %w", err))
		}
		return nil
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return governor.Transport(err)
	}
	return err
}

// barAt assembles a candle from the vendor's parallel arrays, rejecting any
// bar with a nulled field.
func barAt(s quoteSeries, i int) (Candle, bool) {
	if i >= len(s.Open) || i >= len(s.High) || i >= len(s.Low) || i >= len(s.Close) || i >= len(s.Volume) {
		return Candle{}, false
	}
	if s.Open[i] == nil || s.High[i] == nil || s.Low[i] == nil || s.Close[i] == nil || s.Volume[i] == nil {
		return Candle{}, false
	}
	return Candle{
		Open:   *s.Open[i],
		High:   *s.High[i],
		Low:    *s.Low[i],
		Close:  *s.Close[i],
		Volume: *s.Volume[i],
		Price:  *s.Close[i],
	}, true
}
