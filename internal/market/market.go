// Package market resolves Korean tickers and daily OHLC candles from public
// quote APIs. Yahoo Finance is the primary source; Naver Finance serves as
// a fallback for candles Yahoo is missing, which happens regularly for
// freshly listed KOSDAQ symbols.
package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hansol-dev/ipowatch/pkg/models"
)

// TickerResolver resolves a company name to an exchange ticker symbol.
type TickerResolver interface {
	ResolveTicker(ctx context.Context, name string) (string, error)
}

// OHLCProvider returns the daily candle of one ticker for one date.
type OHLCProvider interface {
	// Name returns the human-readable name of this provider.
	Name() string

	// DailyOHLC returns the candle for the given trading date.
	DailyOHLC(ctx context.Context, ticker string, date time.Time) (models.OHLC, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a company name cannot be resolved.
var ErrTickerNotFound = fmt.Errorf("ticker not found")

// ErrNoData is returned when a provider has no candle for the date.
var ErrNoData = fmt.Errorf("no market data for date")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// kst is the exchange timezone; candle windows are day-aligned in KST.
var kst = time.FixedZone("KST", 9*60*60)
