package market

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hansol-dev/ipowatch/pkg/models"
)

// Chain is an OHLCProvider that tries providers in order and returns the
// first candle found. Listing-day candles are spotty across sources, so the
// waterfall hides individual provider gaps from the enrichment layer.
type Chain struct {
	providers []OHLCProvider
}

// NewChain creates a provider chain. Order defines priority.
func NewChain(providers ...OHLCProvider) *Chain {
	return &Chain{providers: providers}
}

// Name returns the provider name.
func (c *Chain) Name() string { return "chain" }

// DailyOHLC asks each provider in turn. Returns the last provider's error
// when all of them miss.
func (c *Chain) DailyOHLC(ctx context.Context, ticker string, date time.Time) (models.OHLC, error) {
	var lastErr error = ErrNoData
	for _, p := range c.providers {
		ohlc, err := p.DailyOHLC(ctx, ticker, date)
		if err == nil {
			return ohlc, nil
		}
		if ctx.Err() != nil {
			return models.OHLC{}, ctx.Err()
		}
		log.Debug().Str("provider", p.Name()).Str("ticker", ticker).Err(err).
			Msg("ohlc provider miss, trying next")
		lastErr = err
	}
	return models.OHLC{}, lastErr
}
