// Package feed aggregates IPO headlines from Google News RSS search
// feeds. Each configured query is fetched concurrently and the results
// are merged into one newest-first list.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hansol-dev/ipowatch/internal/infra"
	"github.com/hansol-dev/ipowatch/pkg/models"
)

// googleNewsURL is the RSS search endpoint, parameterized by query.
const googleNewsURL = "https://news.google.com/rss/search?q=%s&hl=ko&gl=KR&ceid=KR:ko"

// DefaultQueries covers the Korean IPO news cycle.
var DefaultQueries = []string{"공모주 청약", "신규 상장", "IPO 수요예측"}

// News fetches and merges headline feeds for a set of search queries.
type News struct {
	baseURL string
	queries []string
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewNews creates a feed reader for the given queries, falling back to
// DefaultQueries when none are configured.
func NewNews(queries []string) *News {
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	return &News{
		baseURL: googleNewsURL,
		queries: queries,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Headlines returns the newest items across every query, deduplicated by
// link since the queries overlap. limit <= 0 means no cap. A query whose
// fetch fails is skipped; only cancellation aborts the whole call.
func (n *News) Headlines(ctx context.Context, limit int) ([]models.NewsItem, error) {
	cacheKey := fmt.Sprintf("news:%d", limit)
	if cached, ok := n.cache.Get(cacheKey); ok {
		return cached.([]models.NewsItem), nil
	}

	var (
		mu    sync.Mutex
		items []models.NewsItem
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, query := range n.queries {
		g.Go(func() error {
			fetched, err := n.fetchQuery(gctx, query)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("query", query).Msg("feed fetch failed")
				return nil
			}
			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := dedupeByLink(items)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Published.After(merged[j].Published)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	n.cache.Set(cacheKey, merged)
	return merged, nil
}

func (n *News) fetchQuery(ctx context.Context, query string) ([]models.NewsItem, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf(n.baseURL, url.QueryEscape(query))
	feed, err := n.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %q: %w", query, err)
	}

	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		headline, outlet := splitTitle(item.Title)
		ni := models.NewsItem{
			Title:  headline,
			Link:   item.Link,
			Source: outlet,
		}
		if item.PublishedParsed != nil {
			ni.Published = *item.PublishedParsed
		}
		items = append(items, ni)
	}
	return items, nil
}

// splitTitle separates the outlet name Google News packs into the item
// title after the last " - ".
func splitTitle(title string) (string, string) {
	if i := strings.LastIndex(title, " - "); i > 0 {
		return strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
	}
	return strings.TrimSpace(title), ""
}

func dedupeByLink(items []models.NewsItem) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.Link]; ok {
			continue
		}
		seen[item.Link] = struct{}{}
		out = append(out, item)
	}
	return out
}
