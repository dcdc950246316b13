package browse

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/rs/zerolog/log"
)

// Client wraps a colly collector behind the Fetcher interface.
//
// Callbacks on a collector are global, so they are registered once in
// NewClient and write into lastDoc/lastErr. Fetch serializes calls with a
// mutex; the crawl pipeline visits pages one at a time anyway.
type Client struct {
	collector *colly.Collector
	transport *http.Transport

	mu      sync.Mutex
	lastDoc *goquery.Document
	lastErr error
}

// Options configures the page fetcher.
type Options struct {
	UserAgent string
	Delay     time.Duration // pause between requests to the same domain
	Timeout   time.Duration
}

// NewClient creates a page fetcher with charset detection enabled.
func NewClient(opts Options) (*Client, error) {
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	)

	if opts.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       opts.Delay,
		}); err != nil {
			return nil, fmt.Errorf("configure rate limit: %w", err)
		}
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	transport := &http.Transport{}
	c.WithTransport(transport)

	client := &Client{
		collector: c,
		transport: transport,
	}

	c.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			client.lastErr = fmt.Errorf("parse %s: %w", r.Request.URL, err)
			return
		}
		client.lastDoc = doc
	})

	c.OnError(func(r *colly.Response, err error) {
		client.lastErr = fmt.Errorf("fetch %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	return client, nil
}

// Fetch downloads a page and parses it. The collector honors the configured
// delay between consecutive calls.
func (c *Client) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.lastDoc = nil
	c.lastErr = nil

	log.Debug().Str("url", url).Msg("fetching page")

	// Visit blocks until the response callbacks have run.
	if err := c.collector.Visit(url); err != nil {
		if c.lastErr != nil {
			return nil, c.lastErr
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if c.lastErr != nil {
		return nil, c.lastErr
	}
	if c.lastDoc == nil {
		return nil, fmt.Errorf("fetch %s: empty response", url)
	}
	return c.lastDoc, nil
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
