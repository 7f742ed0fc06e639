// Package marketdata fetches OHLCV bars for the asset from public
// price providers and persists them.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"btc-sentiment-lab/internal/domain"
)

const (
	// DefaultSymbol is the Yahoo ticker for the asset pair.
	DefaultSymbol = "BTC-USD"

	defaultYahooBaseURL = "https://query1.finance.yahoo.com"
)

// YahooClient fetches daily bars from the Yahoo Finance chart endpoint.
type YahooClient struct {
	baseURL string
	symbol  string
	client  *http.Client
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// WithYahooBaseURL overrides the API base URL.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(c *YahooClient) { c.baseURL = baseURL }
}

// WithYahooSymbol overrides the chart symbol.
func WithYahooSymbol(symbol string) YahooOption {
	return func(c *YahooClient) { c.symbol = symbol }
}

// WithYahooHTTPClient overrides the underlying HTTP client.
func WithYahooHTTPClient(client *http.Client) YahooOption {
	return func(c *YahooClient) { c.client = client }
}

// NewYahooClient creates a Yahoo chart client for the default symbol.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		baseURL: defaultYahooBaseURL,
		symbol:  DefaultSymbol,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// yahooChart mirrors the chart endpoint response shape. Quote arrays
// use pointers because Yahoo nulls out individual slots.
type yahooChart struct {
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
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches one daily bar per calendar day in [from, to].
func (c *YahooClient) DailyBars(ctx context.Context, from, to time.Time) ([]*domain.DailyBar, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "history")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(c.symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching daily bars: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart endpoint returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decoding chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("chart endpoint error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]*domain.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo nulls out slots for days it has no trade data for.
		if !slotComplete(quote.Open, i) || !slotComplete(quote.High, i) ||
			!slotComplete(quote.Low, i) || !slotComplete(quote.Close, i) {
			continue
		}
		bar := &domain.DailyBar{
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:     *quote.Open[i],
			High:     *quote.High[i],
			Low:      *quote.Low[i],
			Close:    *quote.Close[i],
			AdjClose: *quote.Close[i],
		}
		if slotComplete(quote.Volume, i) {
			bar.Volume = *quote.Volume[i]
		}
		if slotComplete(adjClose, i) {
			bar.AdjClose = *adjClose[i]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func slotComplete(vals []*float64, i int) bool {
	return i < len(vals) && vals[i] != nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
