// Package marketdata fetches daily closing prices from Alpha Vantage.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"stockfolio/internal/config"
	apperrors "stockfolio/internal/errors"
)

// Quote is a point-in-time closing price for a symbol. Quotes are fetched
// on demand and never persisted; every lookup re-fetches the series.
type Quote struct {
	Symbol string          `json:"symbol"`
	Close  decimal.Decimal `json:"close"`
	Date   string          `json:"date"` // ISO trading date, e.g. "2024-01-03"
}

// dailyBar is one day's entry in the Alpha Vantage daily time series.
// Only the closing price is read; the remaining OHLCV fields are ignored.
type dailyBar struct {
	Close string `json:"4. close"`
}

// dailySeriesResponse is the TIME_SERIES_DAILY payload. Alpha Vantage
// signals "no data for this symbol" by omitting the series entirely, and
// rate limiting by returning a 200 with a "Note" field instead.
type dailySeriesResponse struct {
	TimeSeries   map[string]dailyBar `json:"Time Series (Daily)"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
	ErrorMessage string              `json:"Error Message"`
}

// Client queries the Alpha Vantage API for daily price series. Construct it
// with NewClient; the provider settings are injected, never read ambiently.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a price client for the configured provider.
func NewClient(cfg config.MarketDataConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: client, apiKey: cfg.APIKey}
}

// GetLatestPrice returns the most recent daily closing price for a symbol.
// It returns ErrPriceUnavailable when the provider has no series for the
// symbol and ErrProviderFailure when the request itself fails.
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (Quote, error) {
	series, err := c.fetchDailySeries(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	// Series keys are ISO dates, so lexicographic order is chronological.
	var latest string
	for date := range series {
		if date > latest {
			latest = date
		}
	}

	return c.quoteFor(symbol, latest, series[latest])
}

// GetPriceOnDate returns the closing price for a symbol on a specific
// trading date (YYYY-MM-DD). A date with no entry in the series is
// ErrPriceUnavailable.
func (c *Client) GetPriceOnDate(ctx context.Context, symbol, date string) (Quote, error) {
	series, err := c.fetchDailySeries(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	bar, ok := series[date]
	if !ok {
		return Quote{}, apperrors.WithMessage(apperrors.ErrPriceUnavailable,
			fmt.Sprintf("No price data for %s on %s", symbol, date))
	}

	return c.quoteFor(symbol, date, bar)
}

// fetchDailySeries requests the full daily time series for a symbol.
func (c *Client) fetchDailySeries(ctx context.Context, symbol string) (map[string]dailyBar, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "TIME_SERIES_DAILY",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		Get("/query")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure, err)
	}
	if resp.IsError() {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure,
			fmt.Errorf("provider returned status %d", resp.StatusCode()))
	}

	var payload dailySeriesResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure, err)
	}

	// A 200 carrying a Note or Information field is the provider's
	// rate-limit signal, not a missing symbol.
	if payload.Note != "" || payload.Information != "" {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure,
			fmt.Errorf("provider rate limited request for %s", symbol))
	}

	if len(payload.TimeSeries) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrPriceUnavailable,
			fmt.Sprintf("No time series data returned for %s", symbol))
	}

	return payload.TimeSeries, nil
}

// quoteFor parses a series entry into a Quote. A non-numeric closing price
// is a provider failure: the payload is malformed, not missing.
func (c *Client) quoteFor(symbol, date string, bar dailyBar) (Quote, error) {
	close, err := decimal.NewFromString(bar.Close)
	if err != nil {
		return Quote{}, apperrors.Wrap(apperrors.ErrProviderFailure,
			fmt.Errorf("unparseable closing price %q for %s on %s: %w", bar.Close, symbol, date, err))
	}

	return Quote{Symbol: symbol, Close: close, Date: date}, nil
}
