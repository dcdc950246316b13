package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/hansol-dev/ipowatch/internal/infra"
	"github.com/hansol-dev/ipowatch/pkg/models"
)

// Naver fetches daily candles from the Naver Finance sise API. The endpoint
// answers with JavaScript-flavored JSON (single quotes, trailing commas),
// so responses run through a repair pass before unmarshaling.
type Naver struct {
	baseURL string
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewNaver creates a Naver Finance client.
func NewNaver(cacheTTL time.Duration, ratePerSec int) *Naver {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Naver{
		baseURL: "https://api.finance.naver.com",
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(ratePerSec, time.Second),
	}
}

// Name returns the provider name.
func (n *Naver) Name() string { return "Naver Finance" }

// DailyOHLC returns the candle for one trading date. The ticker may carry
// a Yahoo-style .KS/.KQ suffix; Naver uses the bare 6-digit issue code.
func (n *Naver) DailyOHLC(ctx context.Context, ticker string, date time.Time) (models.OHLC, error) {
	code := issueCode(ticker)
	day := date.In(kst).Format("20060102")

	cacheKey := fmt.Sprintf("ohlc:%s:%s", code, day)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.(models.OHLC), nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return models.OHLC{}, err
	}

	siseURL := fmt.Sprintf("%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		n.baseURL, code, day, day)
	body, _, err := doGet(ctx, siseURL, nil)
	if err != nil {
		return models.OHLC{}, fmt.Errorf("naver sise %s: %w", code, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return models.OHLC{}, fmt.Errorf("read response: %w", err)
	}

	rows, err := parseSiseRows(string(data))
	if err != nil {
		return models.OHLC{}, fmt.Errorf("parse naver sise %s: %w", code, err)
	}

	for _, row := range rows {
		if len(row) < 5 || !matchesDay(row[0], day) {
			continue
		}
		open, okO := cellFloat(row[1])
		high, okH := cellFloat(row[2])
		low, okL := cellFloat(row[3])
		closing, okC := cellFloat(row[4])
		if !okO || !okH || !okL || !okC {
			continue
		}
		if open == 0 && closing == 0 {
			// Naver pads non-trading days with zero rows.
			return models.OHLC{}, fmt.Errorf("%w: %s %s", ErrNoData, code, day)
		}
		ohlc := models.OHLC{
			Open:  roundPrice(open),
			High:  roundPrice(high),
			Low:   roundPrice(low),
			Close: roundPrice(closing),
		}
		n.cache.Set(cacheKey, ohlc)
		return ohlc, nil
	}

	return models.OHLC{}, fmt.Errorf("%w: %s %s", ErrNoData, code, day)
}

// parseSiseRows repairs the quasi-JSON sise payload and returns its rows,
// header included.
func parseSiseRows(raw string) ([][]any, error) {
	repaired, err := jsonrepair.RepairJSON(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("repair payload: %w", err)
	}

	var rows [][]any
	if err := json.Unmarshal([]byte(repaired), &rows); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return rows, nil
}

// matchesDay compares the date cell of a sise row against a YYYYMMDD day.
// The cell is a quoted string in current payloads, a bare number in older
// ones.
func matchesDay(cell any, day string) bool {
	switch v := cell.(type) {
	case string:
		return strings.TrimSpace(v) == day
	case float64:
		return strconv.FormatInt(int64(v), 10) == day
	}
	return false
}

func cellFloat(cell any) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// issueCode strips the Yahoo exchange suffix off a KRX ticker.
func issueCode(ticker string) string {
	ticker = strings.TrimSuffix(ticker, ".KS")
	ticker = strings.TrimSuffix(ticker, ".KQ")
	return ticker
}
