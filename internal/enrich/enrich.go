// Package enrich attaches listing-day market data to scraped records.
package enrich

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/hansol-dev/ipowatch/internal/market"
	"github.com/hansol-dev/ipowatch/pkg/models"
	"github.com/hansol-dev/ipowatch/pkg/utils"
)

// Rate computes the listing-day return percentage of the close price over
// the confirmed offering price, rounded to two decimals. Returns nil unless
// the confirmed price is present and positive.
func Rate(closePrice int64, confirmedPrice *int64) *float64 {
	if confirmedPrice == nil || *confirmedPrice <= 0 {
		return nil
	}
	rate := float64(closePrice-*confirmedPrice) / float64(*confirmedPrice) * 100
	rate = math.Round(rate*100) / 100
	return &rate
}

// Enricher fills the market fields of scraped records. It is the single
// enrichment entry point: resolve ticker, parse listing date, fetch the
// listing-day candle, compute the return, and attach all five fields at
// once.
type Enricher struct {
	resolver market.TickerResolver
	provider market.OHLCProvider
}

// New creates an enricher over the given ticker and candle sources.
func New(resolver market.TickerResolver, provider market.OHLCProvider) *Enricher {
	return &Enricher{resolver: resolver, provider: provider}
}

// Enrich returns a copy of info with market data attached. Any unresolvable
// step (ticker, listing date, candle) is non-fatal: the original record
// comes back unchanged and the reason is logged.
func (e *Enricher) Enrich(ctx context.Context, info models.StockInfo) models.StockInfo {
	ticker, err := e.resolver.ResolveTicker(ctx, info.Name)
	if err != nil {
		log.Info().Str("name", info.Name).Err(err).Msg("ticker unresolved, keeping record as scraped")
		return info
	}

	date, ok := utils.ParseLooseDate(info.ListingDate)
	if !ok {
		log.Info().Str("name", info.Name).Str("listing_date", info.ListingDate).
			Msg("listing date unusable, keeping record as scraped")
		return info
	}

	ohlc, err := e.provider.DailyOHLC(ctx, ticker, date)
	if err != nil {
		log.Info().Str("name", info.Name).Str("ticker", ticker).Err(err).
			Msg("no listing-day candle, keeping record as scraped")
		return info
	}

	rate := Rate(ohlc.Close, info.ConfirmedPrice)
	enriched := info.WithMarketData(ohlc, rate)

	evt := log.Info().Str("name", info.Name).Str("ticker", ticker)
	if rate != nil {
		evt = evt.Float64("growth_rate", *rate)
	}
	evt.Msg("market data attached")

	return enriched
}
