// Package rates keeps the exchangeRate setting in line with the market.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const (
	chartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"
)

type chartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta chartMeta `json:"meta"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"chart"`
}

// ForexConverter quotes currency pairs against a fixed quote currency using
// the Yahoo Finance chart API. Quotes are cached for the converter's lifetime,
// so one instance should serve a single sync cycle.
type ForexConverter struct {
	httpClient    *http.Client
	baseURL       string
	quoteCurrency string
	mu            sync.RWMutex
	rates         map[string]float64 // "EUR" -> 3.95 means 1 EUR = 3.95 quote
}

// NewForexConverter creates a converter quoting in quoteCurrency.
func NewForexConverter(httpClient *http.Client, quoteCurrency string) *ForexConverter {
	return &ForexConverter{
		httpClient:    httpClient,
		baseURL:       chartBaseURL,
		quoteCurrency: strings.ToUpper(quoteCurrency),
		rates:         make(map[string]float64),
	}
}

// QuoteCurrency returns the currency rates are expressed in.
func (f *ForexConverter) QuoteCurrency() string {
	return f.quoteCurrency
}

// GetRate returns how many units of the quote currency one unit of base buys.
func (f *ForexConverter) GetRate(ctx context.Context, base string) (float64, error) {
	base = strings.ToUpper(base)
	if base == f.quoteCurrency {
		return 1.0, nil
	}

	f.mu.RLock()
	rate, ok := f.rates[base]
	f.mu.RUnlock()
	if ok {
		return rate, nil
	}

	rate, err := f.fetchRate(ctx, base)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	f.rates[base] = rate
	f.mu.Unlock()

	return rate, nil
}

// fetchRate reads the last market price of the "<BASE><QUOTE>=X" ticker.
func (f *ForexConverter) fetchRate(ctx context.Context, base string) (float64, error) {
	ticker := base + f.quoteCurrency + "=X"
	url := f.baseURL + "/" + ticker + "?interval=1d&range=1d"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("building forex request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("forex request for %s: %w", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("forex request for %s: unexpected status %d", ticker, resp.StatusCode)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("decoding forex response for %s: %w", ticker, err)
	}
	if chart.Chart.Error != nil {
		return 0, fmt.Errorf("forex chart error for %s: %s: %s", ticker, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return 0, fmt.Errorf("no forex results for %s", ticker)
	}

	rate := chart.Chart.Result[0].Meta.RegularMarketPrice
	if rate <= 0 {
		return 0, fmt.Errorf("invalid forex rate for %s: %f", ticker, rate)
	}
	return rate, nil
}
