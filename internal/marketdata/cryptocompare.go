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
	// DefaultFromSymbol and DefaultToSymbol form the asset pair for
	// hourly bars.
	DefaultFromSymbol = "BTC"
	DefaultToSymbol   = "USD"

	// maxHistoHourLimit is the provider's per-request row ceiling.
	maxHistoHourLimit = 2000

	defaultCryptoCompareBaseURL = "https://min-api.cryptocompare.com"
)

// CryptoCompareClient fetches hourly bars from the histohour endpoint.
type CryptoCompareClient struct {
	baseURL string
	apiKey  string
	fsym    string
	tsym    string
	client  *http.Client
}

// CryptoCompareOption configures a CryptoCompareClient.
type CryptoCompareOption func(*CryptoCompareClient)

// WithCryptoCompareBaseURL overrides the API base URL.
func WithCryptoCompareBaseURL(baseURL string) CryptoCompareOption {
	return func(c *CryptoCompareClient) { c.baseURL = baseURL }
}

// WithCryptoComparePair overrides the asset pair.
func WithCryptoComparePair(fsym, tsym string) CryptoCompareOption {
	return func(c *CryptoCompareClient) {
		c.fsym = fsym
		c.tsym = tsym
	}
}

// WithCryptoCompareHTTPClient overrides the underlying HTTP client.
func WithCryptoCompareHTTPClient(client *http.Client) CryptoCompareOption {
	return func(c *CryptoCompareClient) { c.client = client }
}

// NewCryptoCompareClient creates a histohour client for the default
// pair. The API key may be empty for the free tier.
func NewCryptoCompareClient(apiKey string, opts ...CryptoCompareOption) *CryptoCompareClient {
	c := &CryptoCompareClient{
		baseURL: defaultCryptoCompareBaseURL,
		apiKey:  apiKey,
		fsym:    DefaultFromSymbol,
		tsym:    DefaultToSymbol,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// histoHourResponse mirrors the histohour envelope.
type histoHourResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		TimeFrom int64 `json:"TimeFrom"`
		TimeTo   int64 `json:"TimeTo"`
		Data     []struct {
			Time       int64   `json:"time"`
			High       float64 `json:"high"`
			Low        float64 `json:"low"`
			Open       float64 `json:"open"`
			Close      float64 `json:"close"`
			VolumeFrom float64 `json:"volumefrom"`
			VolumeTo   float64 `json:"volumeto"`
		} `json:"Data"`
	} `json:"Data"`
}

// HourlyBars fetches up to limit hourly bars ending at the hour that
// contains to. The provider returns bars in ascending time order.
func (c *CryptoCompareClient) HourlyBars(ctx context.Context, limit int, to time.Time) ([]*domain.HourlyBar, error) {
	if limit <= 0 || limit > maxHistoHourLimit {
		limit = maxHistoHourLimit
	}

	params := url.Values{}
	params.Set("fsym", c.fsym)
	params.Set("tsym", c.tsym)
	params.Set("limit", strconv.Itoa(limit))
	if !to.IsZero() {
		params.Set("toTs", strconv.FormatInt(to.Unix(), 10))
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	reqURL := c.baseURL + "/data/v2/histohour?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching hourly bars: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("histohour endpoint returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var envelope histoHourResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding histohour response: %w", err)
	}
	if envelope.Response == "Error" {
		return nil, fmt.Errorf("histohour endpoint error: %s", envelope.Message)
	}

	bars := make([]*domain.HourlyBar, 0, len(envelope.Data.Data))
	for _, row := range envelope.Data.Data {
		bars = append(bars, &domain.HourlyBar{
			Timestamp:  time.Unix(row.Time, 0).UTC().Truncate(time.Hour),
			Open:       row.Open,
			High:       row.High,
			Low:        row.Low,
			Close:      row.Close,
			VolumeFrom: row.VolumeFrom,
			VolumeTo:   row.VolumeTo,
		})
	}
	return bars, nil
}
