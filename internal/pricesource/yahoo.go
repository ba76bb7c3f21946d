// Package pricesource implements the price-fetching collaborator against
// the Yahoo Finance quote API, with retry and circuit-breaker wrappers.
package pricesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/RichD/stock-audible/internal/domain"
	"github.com/RichD/stock-audible/internal/metrics"
)

// YahooClient fetches quotes from the Yahoo Finance v7 quote endpoint.
type YahooClient struct {
	baseURL string
	http    *http.Client
}

func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	return &YahooClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string   `json:"symbol"`
			RegularMarketPrice *float64 `json:"regularMarketPrice"`
			PostMarketPrice    *float64 `json:"postMarketPrice"`
			PreviousClose      *float64 `json:"regularMarketPreviousClose"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// FetchPrice returns the latest price for symbol. Field fallback order
// follows the market phase: regular market price, then post-market, then
// previous close.
func (c *YahooClient) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	start := time.Now()
	price, err := c.fetch(ctx, symbol)
	metrics.PriceFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PriceFetchesTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	metrics.PriceFetchesTotal.WithLabelValues("success").Inc()
	return price, nil
}

func (c *YahooClient) fetch(ctx context.Context, symbol string) (float64, error) {
	reqURL := fmt.Sprintf("%s?symbols=%s", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stock-audible/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("%w: quote API returned %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}

	if len(decoded.QuoteResponse.Result) == 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrSymbolNotFound, symbol)
	}

	quote := decoded.QuoteResponse.Result[0]
	for _, candidate := range []*float64{quote.RegularMarketPrice, quote.PostMarketPrice, quote.PreviousClose} {
		if candidate != nil {
			return *candidate, nil
		}
	}
	return 0, fmt.Errorf("%w: no price fields for %s", domain.ErrFetchFailed, symbol)
}
