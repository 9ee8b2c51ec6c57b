// Package okx provides a client for the OKX v5 public market data API.
// It is the candle provider for the backtest pipeline; rows are returned
// in exchange-native (newest-first) order and callers normalize them.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"backtest-lab/internal/domain"
)

// DefaultBaseURL is the OKX production REST endpoint.
const DefaultBaseURL = "https://www.okx.com"

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client calls the OKX v5 market endpoints over HTTP.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates an OKX market data client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the OKX v5 envelope. A non-"0" code is an API-level error.
type apiResponse struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// MarketTrade is one public trade from /api/v5/market/trades.
type MarketTrade struct {
	InstID    string `json:"instId"`
	TradeID   string `json:"tradeId"`
	Price     string `json:"px"`
	Size      string `json:"sz"`
	Side      string `json:"side"`
	Timestamp string `json:"ts"`
}

// Candles fetches up to limit OHLCV bars for an instrument.
// Rows come back newest-first, as the exchange serves them.
func (c *Client) Candles(ctx context.Context, instID, bar string, limit int) ([]domain.Candle, error) {
	params := url.Values{}
	params.Set("instId", instID)
	params.Set("bar", bar)
	params.Set("limit", strconv.Itoa(limit))

	var rows [][]string
	if err := c.get(ctx, "/api/v5/market/candles", params, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseCandleRow(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// Trades fetches up to limit recent public trades for an instrument.
func (c *Client) Trades(ctx context.Context, instID string, limit int) ([]MarketTrade, error) {
	params := url.Values{}
	params.Set("instId", instID)
	params.Set("limit", strconv.Itoa(limit))

	var trades []MarketTrade
	if err := c.get(ctx, "/api/v5/market/trades", params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// get performs a GET with retries and exponential backoff, unwraps the OKX
// envelope, and decodes the data payload into result.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	reqURL := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http get %s: %w", path, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("okx returned HTTP %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("okx returned HTTP %d: %s", resp.StatusCode, string(body))
		}

		var envelope apiResponse
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if envelope.Code != "0" {
			return fmt.Errorf("okx error code %s: %s", envelope.Code, envelope.Msg)
		}
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
		return nil
	}

	return fmt.Errorf("okx request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// parseCandleRow converts an OKX candle row
// [ts, open, high, low, close, volume, quoteVolume, ...] into a Candle.
func parseCandleRow(row []string) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("candle row has %d fields, want at least 7", len(row))
	}

	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse candle timestamp %q: %w", row[0], err)
	}

	fields := make([]float64, 6)
	for i := 1; i <= 6; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse candle field %q: %w", row[i], err)
		}
		fields[i-1] = v
	}

	return domain.Candle{
		Timestamp:   ts,
		Open:        fields[0],
		High:        fields[1],
		Low:         fields[2],
		Close:       fields[3],
		Volume:      fields[4],
		QuoteVolume: fields[5],
	}, nil
}
