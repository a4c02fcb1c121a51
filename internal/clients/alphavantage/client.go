// Package alphavantage provides a client for the Alpha Vantage API.
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/xuanruli/apex-trade/internal/common"
	"github.com/xuanruli/apex-trade/internal/models"
)

const (
	DefaultBaseURL   = "https://www.alphavantage.co"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// flexFloat64 handles JSON values that may be either a number or a string.
// Alpha Vantage encodes every numeric field as a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client implements the MarketDataClient interface against Alpha Vantage.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a provider error.
type APIError struct {
	StatusCode int
	Message    string
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("alpha vantage error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// get performs a rate-limited GET against the /query endpoint.
func (c *Client) get(ctx context.Context, function string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("function", function)
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", models.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %v", models.ErrUpstream, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Function:   function,
		})
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: decoding response: %v", models.ErrUpstream, err)
	}

	return nil
}

// dailyBar is one day's entry in the TIME_SERIES_DAILY_ADJUSTED payload.
type dailyBar struct {
	Open     flexFloat64 `json:"1. open"`
	High     flexFloat64 `json:"2. high"`
	Low      flexFloat64 `json:"3. low"`
	Close    flexFloat64 `json:"4. close"`
	AdjClose flexFloat64 `json:"5. adjusted close"`
	Volume   flexFloat64 `json:"6. volume"`
}

// dailySeriesResponse is the TIME_SERIES_DAILY_ADJUSTED envelope. Alpha
// Vantage signals throttling and bad symbols with 200 responses carrying a
// Note or Error Message instead of data.
type dailySeriesResponse struct {
	Series       map[string]dailyBar `json:"Time Series (Daily)"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
	ErrorMessage string              `json:"Error Message"`
}

// GetDailySeries returns daily bars for symbol from since onward, ordered
// by date ascending.
func (c *Client) GetDailySeries(ctx context.Context, symbol string, since time.Time) ([]models.PriceBar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")

	var resp dailySeriesResponse
	if err := c.get(ctx, "TIME_SERIES_DAILY_ADJUSTED", params, &resp); err != nil {
		return nil, err
	}

	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, resp.ErrorMessage)
	}
	if resp.Note != "" {
		return nil, fmt.Errorf("%w: throttled: %s", models.ErrUpstream, resp.Note)
	}
	if resp.Information != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, resp.Information)
	}

	bars := make([]models.PriceBar, 0, len(resp.Series))
	for dateStr, bar := range resp.Series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("date", dateStr).Msg("Skipping bar with unparseable date")
			continue
		}
		if date.Before(since) {
			continue
		}
		bars = append(bars, models.PriceBar{
			Symbol:   symbol,
			Date:     date,
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjClose),
			Volume:   int64(bar.Volume),
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	c.logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Daily series fetched")
	return bars, nil
}
