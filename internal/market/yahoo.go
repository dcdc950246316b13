package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hansol-dev/ipowatch/internal/infra"
	"github.com/hansol-dev/ipowatch/pkg/models"
	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// Yahoo resolves tickers and daily candles via the Yahoo Finance API.
// KRX symbols carry a .KS (KOSPI) or .KQ (KOSDAQ) suffix there.
type Yahoo struct {
	searchBaseURL string
	chartBaseURL  string
	cache         *infra.Cache
	limiter       *infra.RateLimiter
}

// NewYahoo creates a Yahoo Finance client.
func NewYahoo(cacheTTL time.Duration, ratePerSec int) *Yahoo {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Yahoo{
		searchBaseURL: "https://query2.finance.yahoo.com",
		chartBaseURL:  "https://query1.finance.yahoo.com",
		cache:         infra.NewCache(cacheTTL),
		limiter:       infra.NewRateLimiter(ratePerSec, time.Second),
	}
}

// Name returns the provider name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yhSearchResponse struct {
	Quotes []yhSearchQuote `json:"quotes"`
}

type yhSearchQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	QuoteType string `json:"quoteType"`
	Exchange  string `json:"exchange"`
}

type yhChartResponse struct {
	Chart struct {
		Result []yhChartResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"chart"`
}

type yhChartResult struct {
	Timestamp  []int64      `json:"timestamp"`
	Indicators yhIndicators `json:"indicators"`
}

type yhIndicators struct {
	Quote []yhOHLC `json:"quote"`
}

type yhOHLC struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

type yhError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// ResolveTicker searches Yahoo for a KRX equity matching the company name.
// The raw name is tried first, then a variant with corporate-suffix noise
// stripped, since the calendar site decorates names the quote APIs do not.
func (y *Yahoo) ResolveTicker(ctx context.Context, name string) (string, error) {
	cacheKey := "ticker:" + name
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(string), nil
	}

	candidates := []string{name}
	if cleaned := utils.CleanCorpName(name); cleaned != "" && cleaned != name {
		candidates = append(candidates, cleaned)
	}

	for _, candidate := range candidates {
		ticker, err := y.search(ctx, candidate)
		if err == nil {
			y.cache.Set(cacheKey, ticker)
			return ticker, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Debug().Str("name", candidate).Err(err).Msg("yahoo search miss")
	}
	return "", fmt.Errorf("%w: %s", ErrTickerNotFound, name)
}

func (y *Yahoo) search(ctx context.Context, name string) (string, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return "", err
	}

	searchURL := fmt.Sprintf("%s/v1/finance/search?q=%s", y.searchBaseURL, url.QueryEscape(name))
	body, _, err := doGet(ctx, searchURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return "", fmt.Errorf("yahoo search %s: %w", name, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp yhSearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("parse yahoo search: %w", err)
	}

	first := ""
	for _, q := range resp.Quotes {
		if q.QuoteType != "EQUITY" || !isKRXSymbol(q.Symbol) {
			continue
		}
		if q.ShortName == name || q.LongName == name {
			return q.Symbol, nil
		}
		if first == "" {
			first = q.Symbol
		}
	}
	if first != "" {
		return first, nil
	}
	return "", fmt.Errorf("%w: %s", ErrTickerNotFound, name)
}

// DailyOHLC returns the candle for one KST trading day.
func (y *Yahoo) DailyOHLC(ctx context.Context, ticker string, date time.Time) (models.OHLC, error) {
	day := date.In(kst)
	cacheKey := fmt.Sprintf("ohlc:%s:%s", ticker, day.Format("2006-01-02"))
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(models.OHLC), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return models.OHLC{}, err
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, kst)
	end := start.Add(24 * time.Hour)

	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.chartBaseURL, url.PathEscape(ticker), start.Unix(), end.Unix())
	body, _, err := doGet(ctx, chartURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return models.OHLC{}, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return models.OHLC{}, fmt.Errorf("read response: %w", err)
	}

	var resp yhChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.OHLC{}, fmt.Errorf("parse yahoo chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return models.OHLC{}, fmt.Errorf("yahoo API error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return models.OHLC{}, fmt.Errorf("%w: %s %s", ErrNoData, ticker, day.Format("2006-01-02"))
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return models.OHLC{}, fmt.Errorf("%w: %s %s", ErrNoData, ticker, day.Format("2006-01-02"))
	}

	quote := result.Indicators.Quote[0]
	for i := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		ohlc := models.OHLC{
			Open:  roundPrice(*quote.Open[i]),
			High:  roundPrice(*quote.High[i]),
			Low:   roundPrice(*quote.Low[i]),
			Close: roundPrice(*quote.Close[i]),
		}
		y.cache.Set(cacheKey, ohlc)
		return ohlc, nil
	}

	return models.OHLC{}, fmt.Errorf("%w: %s %s", ErrNoData, ticker, day.Format("2006-01-02"))
}

// isKRXSymbol reports whether a Yahoo symbol trades on KOSPI or KOSDAQ.
func isKRXSymbol(symbol string) bool {
	return strings.HasSuffix(symbol, ".KS") || strings.HasSuffix(symbol, ".KQ")
}

// roundPrice converts a quote API float to a won amount.
func roundPrice(v float64) int64 {
	return int64(math.Round(v))
}
